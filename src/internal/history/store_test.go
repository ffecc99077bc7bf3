// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "empty path",
			testFunc: func(t *testing.T) {
				_, err := Open("")
				assert.Error(t, err)
			},
		},
		{
			name: "record and list backups",
			testFunc: func(t *testing.T) {
				s := openTestStore(t)
				base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

				first, err := s.RecordBackup(ctx, Backup{Device: "R1", Path: "backups/R1_config_1.txt", Size: 120, CreatedAt: base})
				require.NoError(t, err)
				assert.NotEmpty(t, first.ID)

				_, err = s.RecordBackup(ctx, Backup{Device: "R1", Path: "backups/R1_config_2.txt", Size: 130, CreatedAt: base.Add(time.Minute)})
				require.NoError(t, err)
				_, err = s.RecordBackup(ctx, Backup{Device: "R2", Path: "backups/R2_config_1.txt", Size: 90, CreatedAt: base.Add(2 * time.Minute)})
				require.NoError(t, err)

				r1, err := s.Backups(ctx, "R1", 0)
				require.NoError(t, err)
				require.Len(t, r1, 2)
				assert.Equal(t, "backups/R1_config_2.txt", r1[0].Path, "newest first")
				assert.Equal(t, int64(130), r1[0].Size)
				assert.True(t, r1[1].CreatedAt.Equal(base))

				all, err := s.Backups(ctx, "", 0)
				require.NoError(t, err)
				assert.Len(t, all, 3)
				assert.Equal(t, "R2", all[0].Device)
			},
		},
		{
			name: "record and list changes",
			testFunc: func(t *testing.T) {
				s := openTestStore(t)

				c, err := s.RecordChange(ctx, Change{
					Device:    "R2",
					Operation: "configure_default_gateway",
					Commands:  []string{"ip route 0.0.0.0 0.0.0.0 10.1.1.1"},
					Success:   true,
					Message:   "Default gateway configured",
				})
				require.NoError(t, err)
				assert.NotEmpty(t, c.ID)
				assert.False(t, c.CreatedAt.IsZero())

				_, err = s.RecordChange(ctx, Change{Device: "R2", Operation: "save_config"})
				require.NoError(t, err)

				changes, err := s.Changes(ctx, "R2", 10)
				require.NoError(t, err)
				require.Len(t, changes, 2)

				var gw Change
				for _, ch := range changes {
					if ch.Operation == "configure_default_gateway" {
						gw = ch
					}
				}
				assert.Equal(t, []string{"ip route 0.0.0.0 0.0.0.0 10.1.1.1"}, gw.Commands)
				assert.True(t, gw.Success)
				assert.Equal(t, "Default gateway configured", gw.Message)

				none, err := s.Changes(ctx, "R9", 10)
				require.NoError(t, err)
				assert.Empty(t, none)
			},
		},
		{
			name: "limit",
			testFunc: func(t *testing.T) {
				s := openTestStore(t)
				for range 5 {
					_, err := s.RecordChange(ctx, Change{Device: "R1", Operation: "change_hostname"})
					require.NoError(t, err)
				}

				changes, err := s.Changes(ctx, "R1", 3)
				require.NoError(t, err)
				assert.Len(t, changes, 3)
			},
		},
		{
			name: "reopen keeps data",
			testFunc: func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "history.db")
				s, err := Open(path)
				require.NoError(t, err)
				_, err = s.RecordBackup(ctx, Backup{Device: "R1", Path: "a.txt", Size: 1})
				require.NoError(t, err)
				require.NoError(t, s.Close())

				s, err = Open(path)
				require.NoError(t, err)
				defer s.Close()
				backups, err := s.Backups(ctx, "R1", 0)
				require.NoError(t, err)
				assert.Len(t, backups, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
