package wire

import "github.com/google/uuid"

// BaseRequest is the common request envelope. AuthorizationCode carries the
// rotating per-request token in the form "<counter>-<token>".
type BaseRequest struct {
	UserId            uuid.UUID `json:"UserId"`
	DeviceId          uuid.UUID `json:"DeviceId"`
	ApplicationId     string    `json:"ApplicationId"`
	AuthorizationCode string    `json:"AuthorizationCode"`
	ClientMessage     string    `json:"ClientMessage,omitempty"`
}

// AuthRequest syncs the user and device slots, and carries pairing codes in
// ClientMessage for the generate/use endpoints.
type AuthRequest struct {
	BaseRequest
	UserEntity   *Entity `json:"UserEntity,omitempty"`
	DeviceEntity *Entity `json:"DeviceEntity,omitempty"`
}

// CollectionRequest syncs the caller's collections.
type CollectionRequest struct {
	BaseRequest
	CollectionEntities []Entity `json:"CollectionEntities"`
}

// RecordRequest syncs leaf records. CollectionEntities may carry
// ConfirmAccess entries that scope the visible record set.
type RecordRequest struct {
	BaseRequest
	CollectionEntities []Entity `json:"CollectionEntities,omitempty"`
	RecordEntities     []Entity `json:"RecordEntities"`
}

// BaseResponse is the common response envelope.
type BaseResponse struct {
	ServerMessage string   `json:"ServerMessage,omitempty"`
	RequestFailed bool     `json:"RequestFailed"`
	ApiError      ApiError `json:"ApiError,omitempty"`
}

type AuthResponse struct {
	BaseResponse
	UserEntity   *Entity `json:"UserEntity,omitempty"`
	DeviceEntity *Entity `json:"DeviceEntity,omitempty"`
}

type CollectionResponse struct {
	BaseResponse
	CollectionEntities []Entity `json:"CollectionEntities,omitempty"`
}

type RecordResponse struct {
	BaseResponse
	CollectionEntities []Entity `json:"CollectionEntities,omitempty"`
	RecordEntities     []Entity `json:"RecordEntities,omitempty"`
}

// Failed implements Response.
func (r *BaseResponse) Failed() bool { return r.RequestFailed }

// SetFailure implements Response.
func (r *BaseResponse) SetFailure(code ApiError, msg string) {
	r.RequestFailed = true
	r.ApiError = code
	r.ServerMessage = msg
}

// Response is satisfied by every response envelope; the transport client uses
// it to mark unreachable-server and unparseable-body failures uniformly.
type Response interface {
	Failed() bool
	SetFailure(code ApiError, msg string)
}
