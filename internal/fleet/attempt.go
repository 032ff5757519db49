// Package fleet implements the operations that mutate a simulator host:
// sweeping test instances, the pairing compatibility sweep and the fleet
// reset. Every per-instance action is recorded as an Attempt; only a missing
// tool or an unreadable inventory stops a run.
package fleet

import (
	"fmt"

	"github.com/Iron-Ham/simfleet/internal/report"
)

// Action is the kind of tool operation an Attempt made.
type Action string

const (
	ActionCreate Action = "create"
	ActionPair   Action = "pair"
	ActionUnpair Action = "unpair"
	ActionDelete Action = "delete"
)

// Role says which side of the sweep an instance plays.
type Role string

const (
	RoleCompanion Role = "companion"
	RolePrimary   Role = "primary"
	RoleNone      Role = ""
)

// Attempt is the outcome of one tool operation.
type Attempt struct {
	Action Action
	Role   Role
	// Target describes what was acted on: an instance name, a UDID or a
	// "companion -> primary" pair.
	Target string
	// Family is the runtime category of a created instance.
	Family string
	// ID is the UDID or pair handle returned on success.
	ID  string
	Err error
}

// OK reports whether the operation succeeded.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// String renders the attempt as a progress line.
func (a Attempt) String() string {
	verb := map[Action]string{
		ActionCreate: "Create",
		ActionPair:   "Pair",
		ActionUnpair: "Unpair",
		ActionDelete: "Delete",
	}[a.Action]
	if a.Role != RoleNone {
		verb += " " + string(a.Role)
	}
	if a.OK() {
		return fmt.Sprintf("%s %s", verb, a.Target)
	}
	return fmt.Sprintf("%s %s: %v", verb, a.Target, a.Err)
}

// Attempts is an ordered log of operations.
type Attempts []Attempt

// Failed returns the attempts that did not succeed.
func (as Attempts) Failed() Attempts {
	var out Attempts
	for _, a := range as {
		if !a.OK() {
			out = append(out, a)
		}
	}
	return out
}

// Count returns how many attempts of the given action succeeded and failed.
func (as Attempts) Count(action Action) (ok, failed int) {
	for _, a := range as {
		if a.Action != action {
			continue
		}
		if a.OK() {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// tally folds one attempt into the pairing or reset counters.
func tally(rep *report.Report, a Attempt) {
	switch a.Action {
	case ActionCreate:
		if !a.OK() {
			rep.Inc(report.CreationFailures)
			return
		}
		switch a.Role {
		case RoleCompanion:
			rep.Inc(report.CompanionsCreated)
		case RolePrimary:
			rep.Inc(report.PrimariesCreated)
		default:
			rep.Inc(familyCounter(a.Family))
		}
	case ActionPair:
		rep.Inc(report.PairingAttempts)
		if a.OK() {
			rep.Inc(report.PairingSuccesses)
		}
	case ActionUnpair:
		if !a.OK() {
			rep.Inc(report.UnpairingFailures)
		}
	case ActionDelete:
		if !a.OK() {
			rep.Inc(report.DeletionFailures)
		}
	}
}

func familyCounter(family string) report.Counter {
	switch family {
	case "iOS":
		return report.IOSInstancesCreated
	case "watchOS":
		return report.WatchOSInstancesCreated
	case "tvOS":
		return report.TVOSInstancesCreated
	default:
		return report.OtherInstancesCreated
	}
}
