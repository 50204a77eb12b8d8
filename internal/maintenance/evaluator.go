package maintenance

import (
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultIntervalMonths applies when a type has no month interval.
	DefaultIntervalMonths = 12
	// DaysPerMonth is the fixed month length used for time-based recurrence.
	DaysPerMonth = 30
)

// State is the evaluated condition of one maintenance type on one vehicle.
type State string

const (
	StateNeverPerformed State = "never_performed"
	StateOK             State = "ok"
	StateDue            State = "due"
)

// Trigger names the recurrence threshold that made an item due.
type Trigger string

const (
	TriggerNone     Trigger = ""
	TriggerDistance Trigger = "distance"
	TriggerTime     Trigger = "time"
)

// Status is the evaluation result for one maintenance type.
type Status struct {
	TypeID      primitive.ObjectID
	TypeName    string
	State       State
	Trigger     Trigger
	Message     string
	NextDueKm   int
	NextDueDate time.Time
}

// Due reports whether the item needs attention.
func (s Status) Due() bool {
	return s.State == StateDue
}

// Evaluate computes the status of every maintenance type for the vehicle.
// latest maps a type id to the most recent log of that type for this
// vehicle; a missing or nil entry means the type was never performed.
// now is converted to UTC before comparison.
func Evaluate(v models.Vehicle, types []models.MaintenanceType, latest map[primitive.ObjectID]*models.MaintenanceLog, now time.Time) []Status {
	now = now.UTC()
	statuses := make([]Status, 0, len(types))
	for _, mt := range types {
		statuses = append(statuses, evaluateOne(v, mt, latest[mt.ID], now))
	}
	return statuses
}

func evaluateOne(v models.Vehicle, mt models.MaintenanceType, last *models.MaintenanceLog, now time.Time) Status {
	st := Status{TypeID: mt.ID, TypeName: mt.Name}
	if last == nil {
		st.State = StateNeverPerformed
		st.Message = "never performed"
		return st
	}

	st.NextDueKm = last.KmPerformed + intervalKm(mt)
	st.NextDueDate = last.DatePerformed.UTC().AddDate(0, 0, intervalMonths(mt)*DaysPerMonth)

	// distance wins when both thresholds are crossed
	switch {
	case v.CurrentKm >= st.NextDueKm:
		st.State = StateDue
		st.Trigger = TriggerDistance
		st.Message = fmt.Sprintf("due by distance (next: %dkm)", st.NextDueKm)
	case !now.Before(st.NextDueDate):
		st.State = StateDue
		st.Trigger = TriggerTime
		st.Message = fmt.Sprintf("due by time (next: %s)", st.NextDueDate.Format("2006-01-02"))
	default:
		st.State = StateOK
		st.Message = "OK"
	}
	return st
}

// Alerts keeps the due statuses and converts them to API alerts.
func Alerts(statuses []Status) []models.Alert {
	alerts := make([]models.Alert, 0)
	for _, st := range statuses {
		if st.Due() {
			alerts = append(alerts, models.Alert{Type: st.TypeName, Msg: st.Message})
		}
	}
	return alerts
}

func intervalKm(mt models.MaintenanceType) int {
	if mt.DefaultIntervalKm == nil {
		return 0
	}
	return *mt.DefaultIntervalKm
}

func intervalMonths(mt models.MaintenanceType) int {
	if mt.DefaultIntervalMonths == nil {
		return DefaultIntervalMonths
	}
	return *mt.DefaultIntervalMonths
}
