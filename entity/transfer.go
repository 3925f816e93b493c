package entity

type Direction int

const (
	DirectionUpload Direction = iota + 1
	DirectionDownload
)

func (d Direction) String() string {
	switch d {
	case DirectionUpload:
		return "upload"
	case DirectionDownload:
		return "download"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	EventStarted EventKind = iota + 1
	EventProgress
	EventCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type TransferEvent struct {
	Kind           EventKind
	Direction      Direction
	CompletedBytes int64
	TotalBytes     *int64 // nil when the size is not known up front
}
