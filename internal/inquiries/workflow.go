package inquiries

import (
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
)

// Action is an admin step on an inquiry.
type Action string

const (
	ActionMarkContacted Action = "mark_contacted"
	ActionClose         Action = "close"
)

// Actions lists what an admin may do next with an inquiry.
type Actions struct {
	MarkContacted bool `json:"marcar_contactada"`
	Close         bool `json:"cerrar"`
}

// Transition returns the status reached by applying action to from.
// nueva -> contactada -> cerrada; nothing else is allowed.
func Transition(from enums.InquiryStatus, action Action) (enums.InquiryStatus, error) {
	switch {
	case from == enums.InquiryStatusNew && action == ActionMarkContacted:
		return enums.InquiryStatusContacted, nil
	case from == enums.InquiryStatusContacted && action == ActionClose:
		return enums.InquiryStatusClosed, nil
	}
	return from, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s an inquiry in state %s", action, from)
}

func ActionsFor(status enums.InquiryStatus) Actions {
	return Actions{
		MarkContacted: status == enums.InquiryStatusNew,
		Close:         status == enums.InquiryStatusContacted,
	}
}
