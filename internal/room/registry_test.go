package room

import (
	"testing"

	"github.com/codehive-dev/codehive/internal/domain"
	"github.com/codehive-dev/codehive/internal/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomGeneratesValidUniqueCode(t *testing.T) {
	reg := NewRegistry()

	r1, err := reg.CreateRoom("Zeus", "", true, 0, 1000)
	require.NoError(t, err)
	assert.True(t, ids.IsValidRoomCode(r1.Code))

	r2, err := reg.CreateRoom("Hera", "", true, 0, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Code, r2.Code)
}

func TestGetRoomHasRoomDeleteRoom(t *testing.T) {
	reg := NewRegistry()
	r, err := reg.CreateRoom("Zeus", "", true, 0, 1000)
	require.NoError(t, err)

	assert.True(t, reg.HasRoom(r.Code))
	assert.Same(t, r, reg.GetRoom(r.Code))

	reg.DeleteRoom(r.Code)
	assert.False(t, reg.HasRoom(r.Code))
	assert.Nil(t, reg.GetRoom(r.Code))
}

func TestGetPublicRoomsExcludesEmptyAndPrivate(t *testing.T) {
	reg := NewRegistry()
	pub, err := reg.CreateRoom("Zeus", "", true, 0, 1000)
	require.NoError(t, err)
	priv, err := reg.CreateRoom("Hera", "", false, 0, 1000)
	require.NoError(t, err)
	_ = priv

	require.Empty(t, pub.AddMember("dev1", "Alice", newFakeConn(), nil, 1000))

	summaries := reg.GetPublicRooms()
	require.Len(t, summaries, 1)
	assert.Equal(t, pub.Code, summaries[0].Code)
}

func TestPruneEmptyRooms(t *testing.T) {
	reg := NewRegistry()
	empty, err := reg.CreateRoom("Zeus", "", true, 0, 1000)
	require.NoError(t, err)
	occupied, err := reg.CreateRoom("Hera", "", true, 0, 1000)
	require.NoError(t, err)
	require.Empty(t, occupied.AddMember("dev1", "Alice", newFakeConn(), nil, 1000))

	pruned := reg.PruneEmptyRooms()
	assert.Contains(t, pruned, empty.Code)
	assert.False(t, reg.HasRoom(empty.Code))
	assert.True(t, reg.HasRoom(occupied.Code))
}

func TestPruneExpiredRooms(t *testing.T) {
	reg := NewRegistry()
	r, err := reg.CreateRoom("Zeus", "", true, 1, 1000)
	require.NoError(t, err)
	require.Empty(t, r.AddMember("dev1", "Alice", newFakeConn(), nil, 1000))

	stillFresh := reg.PruneExpiredRooms(1000)
	assert.Empty(t, stillFresh)

	farFuture := int64(1000) + 2*3600*1000
	pruned := reg.PruneExpiredRooms(farFuture)
	assert.Contains(t, pruned, r.Code)
}

func TestSnapshotOmitsEmptyRoomsAndHashesPassword(t *testing.T) {
	reg := NewRegistry()
	r, err := reg.CreateRoom("Zeus", "secret123", true, 0, 1000)
	require.NoError(t, err)
	require.Empty(t, r.AddMember("dev1", "Alice", newFakeConn(), nil, 1000))

	empty, err := reg.CreateRoom("Hera", "", true, 0, 1000)
	require.NoError(t, err)
	_ = empty

	snaps := reg.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, r.Code, snaps[0].Code)
	require.NotNil(t, snaps[0].PasswordHash)
	assert.Equal(t, ids.SHA256Hex("secret123"), *snaps[0].PasswordHash)
}

func TestRestoreRoomDoesNotRestoreMembership(t *testing.T) {
	reg := NewRegistry()
	hash := ids.SHA256Hex("secret123")
	reg.RestoreRoom(&domain.RoomSnapshot{
		Code: "HIVE-ABCDEF", CreatedAt: 1000, CreatedBy: "Zeus",
		HasPassword: true, PasswordHash: &hash, IsPublic: true, LastActivity: 1000,
	})

	r := reg.GetRoom("HIVE-ABCDEF")
	require.NotNil(t, r)
	assert.Equal(t, 0, r.MemberCount())
	assert.Equal(t, hash, r.PasswordHash())
	assert.True(t, r.HasPassword())
	assert.True(t, r.CheckPassword("secret123"))
	assert.False(t, r.CheckPassword("wrong"))
}
