package main

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sop-infra/sopctl/internal/compliance"
	"github.com/sop-infra/sopctl/internal/dashboard/dashboardtest"
	"github.com/sop-infra/sopctl/internal/joblog"
	"github.com/sop-infra/sopctl/internal/lock"
	"github.com/sop-infra/sopctl/internal/models"
	"github.com/sop-infra/sopctl/internal/reconciler"
	"github.com/sop-infra/sopctl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_refreshNamed(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	log := logrus.NewEntry(logger)

	testCases := []struct {
		name      string
		names     []string
		wantErr   bool
		errSubstr []string
		refreshed bool
	}{
		{
			name:      "all dashboards refreshed",
			names:     []string{"main"},
			wantErr:   false,
			refreshed: true,
		},
		{
			name:      "unknown dashboard does not stop the next one",
			names:     []string{"missing", "main"},
			wantErr:   true,
			errSubstr: []string{"missing"},
			refreshed: true,
		},
		{
			name:      "every failure is reported",
			names:     []string{"lab", "missing", "main"},
			wantErr:   true,
			errSubstr: []string{"lab", "missing"},
			refreshed: true,
		},
	}

	for _, tc := range testCases {
		s, err := store.New(log)
		require.NoError(t, err, tc.name)
		require.NoError(t, s.Write(func(txn *store.Txn) error {
			if err := txn.PutDashboard(&models.Dashboard{Name: "main"}); err != nil {
				return err
			}
			return txn.PutDashboard(&models.Dashboard{Name: "lab"})
		}), tc.name)

		fake := dashboardtest.New()
		factory := &dashboardtest.Factory{Fakes: map[string]*dashboardtest.Fake{"main": fake}}
		r := reconciler.New(s, factory, lock.NewLocal(), compliance.New(s, log), reconciler.Config{}, log)

		a := &app{log: log, store: s, jobs: joblog.New(log)}
		err = a.refreshNamed(context.Background(), r, tc.names)

		if tc.wantErr {
			require.Error(t, err, tc.name)
			for _, substr := range tc.errSubstr {
				assert.Contains(t, err.Error(), substr, tc.name)
			}
			assert.True(t, a.jobs.Failed(), tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
		assert.Equal(t, tc.refreshed, fake.Calls() > 0, tc.name)
	}
}
