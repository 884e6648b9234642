package presence

// ChangeKind identifies what happened to a member.
type ChangeKind string

const (
	ChangeJoin   ChangeKind = "join"
	ChangeLeave  ChangeKind = "leave"
	ChangeUpdate ChangeKind = "update"
	ChangeStatus ChangeKind = "status"

	// ChangeSync asks every other instance to republish its local members
	// as joins. An instance sends it when it starts listening.
	ChangeSync ChangeKind = "sync"

	// ChangeBeacon tells the others the origin instance is still alive.
	// Remote members of an instance that stops beaconing are dropped.
	ChangeBeacon ChangeKind = "beacon"
)

// Change is a membership event exchanged between server instances so that
// every instance sees the members connected elsewhere. Sync and beacon
// changes are instance-wide and carry no room or client.
type Change struct {
	Kind     ChangeKind
	RoomID   string
	ClientID string
	Entry    Entry

	// Origin is the instance that produced the change. Instances ignore
	// their own changes when they come back over the bus.
	Origin string
}
