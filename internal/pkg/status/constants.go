package status

// Status represents call status
type Status int

const (
	// Scheduled - initial value, set at call record creation before dialing
	Scheduled Status = iota + 1
	// InProgress - call answered or voice-AI session configured
	InProgress
	// Completed - final step, the only status that triggers analysis
	Completed
	// Failed - terminal failure
	Failed
	// Busy - terminal, line was busy
	Busy
	// NoAnswer - terminal, candidate did not pick up
	NoAnswer
)

var (
	statusName = map[Status]string{Scheduled: "SCHEDULED", InProgress: "IN_PROGRESS",
		Completed: "COMPLETED", Failed: "FAILED", Busy: "BUSY", NoAnswer: "NO_ANSWER"}
	nameStatus = map[string]Status{"SCHEDULED": Scheduled, "IN_PROGRESS": InProgress,
		"COMPLETED": Completed, "FAILED": Failed, "BUSY": Busy, "NO_ANSWER": NoAnswer}
)

func (st Status) String() string {
	return statusName[st]
}

// From returns status obj from string
func From(st string) Status {
	return nameStatus[st]
}

// IsTerminal returns true for final statuses
func (st Status) IsTerminal() bool {
	return st == Completed || st == Failed || st == Busy || st == NoAnswer
}
