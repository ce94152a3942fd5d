package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncEntity is the capability contract the generic reconciler works against.
// Each concrete kind implements it once.
type SyncEntity interface {
	EntityID() uuid.UUID
	EntityKind() ContentKind
	EntityIdentifier() string
	Deleted() bool
	SetDeleted(deleted bool)
}

// Application identifies a consuming application and holds the shared seed
// used to derive per-request authorization tokens.
type Application struct {
	ID              int64  `db:"id"`
	ApplicationID   string `db:"application_id"`
	Name            string `db:"name"`
	ApplicationSeed int64  `db:"application_seed"`
}

// User is the account entity. PersonalSeed is write-once at creation and is
// never echoed back on reads.
type User struct {
	GUID          uuid.UUID `db:"guid"`
	Identifier    string    `db:"identifier"`
	ApplicationID string    `db:"application_id"`
	PersonalSeed  int64     `db:"personal_seed"`
	IsDeleted     bool      `db:"is_deleted"`
}

// Device belongs to a user. Only authenticated devices may call sync
// endpoints; the first device of a user is authenticated implicitly.
type Device struct {
	GUID            uuid.UUID `db:"guid"`
	UserGUID        uuid.UUID `db:"user_guid"`
	Identifier      string    `db:"identifier"`
	IsAuthenticated bool      `db:"is_authenticated"`
	IsDeleted       bool      `db:"is_deleted"`
}

// Collection groups leaf records; visible to every device of its user.
type Collection struct {
	GUID       uuid.UUID `db:"guid"`
	UserGUID   uuid.UUID `db:"user_guid"`
	DeviceGUID uuid.UUID `db:"device_guid"`
	Identifier string    `db:"identifier"`
	IsDeleted  bool      `db:"is_deleted"`
}

// Record is a leaf entity inside a collection.
type Record struct {
	GUID           uuid.UUID `db:"guid"`
	CollectionGUID uuid.UUID `db:"collection_guid"`
	UserGUID       uuid.UUID `db:"user_guid"`
	DeviceGUID     uuid.UUID `db:"device_guid"`
	Identifier     string    `db:"identifier"`
	IsDeleted      bool      `db:"is_deleted"`
}

// ContentVersion is one immutable ledger row. Rows are only ever appended.
type ContentVersion struct {
	VersionGUID    uuid.UUID   `db:"version_guid"`
	EntityGUID     uuid.UUID   `db:"entity_guid"`
	ContentKind    ContentKind `db:"content_kind"`
	Content        string      `db:"content"`
	CreateDateTime time.Time   `db:"create_date_time"`
}

// PairingCode is a short-lived one-time code bound to a user account.
type PairingCode struct {
	ID         int64     `db:"id"`
	UserGUID   uuid.UUID `db:"user_guid"`
	Code       string    `db:"code"`
	ValidUntil time.Time `db:"valid_until"`
}

func (u *User) EntityID() uuid.UUID      { return u.GUID }
func (u *User) EntityKind() ContentKind  { return KindUser }
func (u *User) EntityIdentifier() string { return u.Identifier }
func (u *User) Deleted() bool            { return u.IsDeleted }
func (u *User) SetDeleted(deleted bool)  { u.IsDeleted = deleted }

func (d *Device) EntityID() uuid.UUID      { return d.GUID }
func (d *Device) EntityKind() ContentKind  { return KindDevice }
func (d *Device) EntityIdentifier() string { return d.Identifier }
func (d *Device) Deleted() bool            { return d.IsDeleted }
func (d *Device) SetDeleted(deleted bool)  { d.IsDeleted = deleted }

func (c *Collection) EntityID() uuid.UUID      { return c.GUID }
func (c *Collection) EntityKind() ContentKind  { return KindCollection }
func (c *Collection) EntityIdentifier() string { return c.Identifier }
func (c *Collection) Deleted() bool            { return c.IsDeleted }
func (c *Collection) SetDeleted(deleted bool)  { c.IsDeleted = deleted }

func (r *Record) EntityID() uuid.UUID      { return r.GUID }
func (r *Record) EntityKind() ContentKind  { return KindRecord }
func (r *Record) EntityIdentifier() string { return r.Identifier }
func (r *Record) Deleted() bool            { return r.IsDeleted }
func (r *Record) SetDeleted(deleted bool)  { r.IsDeleted = deleted }
