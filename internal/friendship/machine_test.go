package friendship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletop/backend/internal/models"
)

const (
	alice uint = 1
	bob   uint = 2
)

// relations is a minimal in-memory relation table used to replay scenarios.
type relations struct {
	nextID uint
	rows   map[uint]models.UserRelation
}

func newRelations() *relations {
	return &relations{rows: map[uint]models.UserRelation{}}
}

func (r *relations) find(a, b uint) *models.UserRelation {
	for _, rel := range r.rows {
		if rel.RequesterID == a && rel.TargetID == b {
			rel := rel
			return &rel
		}
	}
	return nil
}

func (r *relations) pair(current, other uint) Pair {
	return Pair{Forward: r.find(current, other), Reverse: r.find(other, current)}
}

func (r *relations) apply(t *testing.T, d Decision) {
	t.Helper()
	switch d.Action {
	case ActionInsert:
		r.nextID++
		d.Relation.ID = r.nextID
		r.rows[d.Relation.ID] = d.Relation
	case ActionUpdateStatus:
		require.Contains(t, r.rows, d.Relation.ID)
		r.rows[d.Relation.ID] = d.Relation
	case ActionDelete:
		require.Contains(t, r.rows, d.Relation.ID)
		delete(r.rows, d.Relation.ID)
	default:
		t.Fatalf("unexpected action %v", d.Action)
	}
}

func TestRequestCreatesPending(t *testing.T) {
	d, err := Request(alice, bob, Pair{})
	require.NoError(t, err)

	assert.Equal(t, ActionInsert, d.Action)
	assert.Equal(t, models.UserRelation{RequesterID: alice, TargetID: bob, Status: models.StatusPending}, d.Relation)
}

func TestRequestSelf(t *testing.T) {
	_, err := Request(alice, alice, Pair{})
	assert.ErrorIs(t, err, ErrSelfRelation)
}

func TestRequestDuplicateIsDirectionAgnostic(t *testing.T) {
	rels := newRelations()
	d, err := Request(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	rels.apply(t, d)

	_, err = Request(alice, bob, rels.pair(alice, bob))
	assert.ErrorIs(t, err, ErrRequestAlreadyPending)

	_, err = Request(bob, alice, rels.pair(bob, alice))
	assert.ErrorIs(t, err, ErrRequestAlreadyPending)
}

func TestAcceptThenRequestIsAlreadyFriends(t *testing.T) {
	rels := newRelations()
	d, err := Request(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	rels.apply(t, d)

	d, err = Accept(bob, alice, rels.pair(bob, alice))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdateStatus, d.Action)
	assert.Equal(t, models.StatusAccepted, d.Relation.Status)
	assert.Equal(t, uint(1), d.Relation.ID, "accept must transition the existing record")
	rels.apply(t, d)
	assert.Len(t, rels.rows, 1)

	_, err = Request(alice, bob, rels.pair(alice, bob))
	assert.ErrorIs(t, err, ErrAlreadyFriends)
	_, err = Request(bob, alice, rels.pair(bob, alice))
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestAcceptWithoutRequest(t *testing.T) {
	_, err := Accept(bob, alice, Pair{})
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestAcceptOwnRequestFails(t *testing.T) {
	rels := newRelations()
	d, err := Request(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	rels.apply(t, d)

	_, err = Accept(alice, bob, rels.pair(alice, bob))
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestAcceptAlreadyAccepted(t *testing.T) {
	accepted := &models.UserRelation{ID: 7, RequesterID: alice, TargetID: bob, Status: models.StatusAccepted}

	_, err := Accept(bob, alice, Pair{Reverse: accepted})
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestDeclineDeletesRequest(t *testing.T) {
	rels := newRelations()
	d, err := Request(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	rels.apply(t, d)

	d, err = Decline(bob, alice, rels.pair(bob, alice))
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, d.Action)
	rels.apply(t, d)
	assert.Empty(t, rels.rows)

	_, err = Decline(bob, alice, rels.pair(bob, alice))
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	// A declined request can be sent again.
	_, err = Request(alice, bob, rels.pair(alice, bob))
	assert.NoError(t, err)
}

func TestCancelOutgoingOnly(t *testing.T) {
	rels := newRelations()
	d, err := Request(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	rels.apply(t, d)

	_, err = Cancel(bob, alice, rels.pair(bob, alice))
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	d, err = Cancel(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, d.Action)
	rels.apply(t, d)
	assert.Empty(t, rels.rows)
}

func TestRemove(t *testing.T) {
	rels := newRelations()

	_, err := Remove(alice, bob, rels.pair(alice, bob))
	assert.ErrorIs(t, err, ErrNotFriends)

	d, err := Request(alice, bob, rels.pair(alice, bob))
	require.NoError(t, err)
	rels.apply(t, d)

	_, err = Remove(alice, bob, rels.pair(alice, bob))
	assert.ErrorIs(t, err, ErrNotFriends, "pending is not friends")

	d, err = Accept(bob, alice, rels.pair(bob, alice))
	require.NoError(t, err)
	rels.apply(t, d)

	// Either side may remove, whoever sent the original request.
	d, err = Remove(bob, alice, rels.pair(bob, alice))
	require.NoError(t, err)
	assert.Equal(t, ActionDelete, d.Action)
	rels.apply(t, d)

	assert.Nil(t, rels.find(alice, bob))
	assert.Nil(t, rels.find(bob, alice))
}

func TestSelfTransitions(t *testing.T) {
	_, err := Accept(alice, alice, Pair{})
	assert.ErrorIs(t, err, ErrSelfRelation)
	_, err = Decline(alice, alice, Pair{})
	assert.ErrorIs(t, err, ErrSelfRelation)
	_, err = Cancel(alice, alice, Pair{})
	assert.ErrorIs(t, err, ErrSelfRelation)
	_, err = Remove(alice, alice, Pair{})
	assert.ErrorIs(t, err, ErrSelfRelation)
}

func TestStatusOf(t *testing.T) {
	out := &models.UserRelation{ID: 1, RequesterID: alice, TargetID: bob, Status: models.StatusPending}
	in := &models.UserRelation{ID: 1, RequesterID: bob, TargetID: alice, Status: models.StatusPending}
	friends := &models.UserRelation{ID: 1, RequesterID: bob, TargetID: alice, Status: models.StatusAccepted}

	assert.Equal(t, ViewNone, StatusOf(Pair{}))
	assert.Equal(t, ViewPendingSent, StatusOf(Pair{Forward: out}))
	assert.Equal(t, ViewPendingReceived, StatusOf(Pair{Reverse: in}))
	assert.Equal(t, ViewFriends, StatusOf(Pair{Reverse: friends}))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "insert", ActionInsert.String())
	assert.Equal(t, "update_status", ActionUpdateStatus.String())
	assert.Equal(t, "delete", ActionDelete.String())
	assert.Equal(t, "unknown", Action(0).String())
}
