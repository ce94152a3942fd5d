// Package models contains the server-side database models: sync entities,
// the version ledger rows, applications and pairing codes.
package models

// ContentKind discriminates ledger rows and sync entities by entity kind.
type ContentKind int

const (
	KindUser ContentKind = iota + 1
	KindDevice
	KindCollection
	KindRecord
)

func (k ContentKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindDevice:
		return "device"
	case KindCollection:
		return "collection"
	case KindRecord:
		return "record"
	}
	return "unknown"
}
