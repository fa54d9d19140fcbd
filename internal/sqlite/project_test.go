package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/repository"
)

func TestProjectGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	locID := seedLocation(t, db, "Main Store")
	projID := seedProject(t, db, "August Count", locID, "in_progress")

	repo := NewProjectRepository(db)

	got, err := repo.Get(ctx, projID)
	require.NoError(t, err)
	require.Equal(t, "August Count", got.Name)
	require.Equal(t, project.StateInProgress, got.State)
	require.Equal(t, locID, *got.LocationID)
	require.Equal(t, "Main Store", got.LocationName)
	require.NotNil(t, got.StartDate)

	_, err = repo.Get(ctx, 999)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRunningAtLocation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	locID := seedLocation(t, db, "Main Store")
	otherLoc := seedLocation(t, db, "Annex")
	seedProject(t, db, "Done Count", locID, "completed")
	running := seedProject(t, db, "August Count", locID, "in_progress")
	seedProject(t, db, "Annex Count", otherLoc, "in_progress")

	repo := NewProjectRepository(db)

	got, err := repo.RunningAtLocation(ctx, locID)
	require.NoError(t, err)
	require.Equal(t, running, got.ID)

	emptyLoc := seedLocation(t, db, "Empty")
	_, err = repo.RunningAtLocation(ctx, emptyLoc)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
