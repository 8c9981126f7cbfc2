package session

// Command is the closed set of control tokens the daemon accepts.
type Command int

const (
	Unknown Command = iota
	Start
	Stop
	Pause
	Resume
	Status
	Kill
)

// ParseCommand matches a token exactly and case-sensitively against the
// command set. Anything else is Unknown.
func ParseCommand(token string) Command {
	switch token {
	case "START":
		return Start
	case "STOP":
		return Stop
	case "PAUSE":
		return Pause
	case "RESUME":
		return Resume
	case "STATUS":
		return Status
	case "KILL":
		return Kill
	default:
		return Unknown
	}
}

func (c Command) String() string {
	switch c {
	case Start:
		return "START"
	case Stop:
		return "STOP"
	case Pause:
		return "PAUSE"
	case Resume:
		return "RESUME"
	case Status:
		return "STATUS"
	case Kill:
		return "KILL"
	default:
		return "UNKNOWN"
	}
}
