package rpc

import "github.com/mmynk/godutch/internal/ledger"

// User is an account as returned to clients. The password hash and pending
// codes never leave the server.
type User struct {
	ID          string `json:"id"`
	Phonenumber string `json:"phonenumber"`
	Name        string `json:"name"`
	Verified    bool   `json:"verified"`
	Role        string `json:"role"`
	CreatedAt   int64  `json:"createdAt"`
}

type SignUpRequest struct {
	Phonenumber string `json:"phonenumber"`
	Name        string `json:"name"`
	Password    string `json:"password"`
}

type SignUpResponse struct {
	User *User `json:"user"`
	// CodeExpireTime is when the SMS code stops being accepted (Unix seconds).
	CodeExpireTime int64 `json:"codeExpireTime"`
}

type VerifyRequest struct {
	Phonenumber string `json:"phonenumber"`
	Code        string `json:"code"`
}

type VerifyResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type ResendCodeRequest struct {
	Phonenumber string `json:"phonenumber"`
}

type ResendCodeResponse struct {
	CodeExpireTime int64 `json:"codeExpireTime"`
}

type RequestPasswordResetRequest struct {
	Phonenumber string `json:"phonenumber"`
}

type RequestPasswordResetResponse struct {
	CodeExpireTime int64 `json:"codeExpireTime"`
}

type VerifyPasswordResetRequest struct {
	Phonenumber string `json:"phonenumber"`
	Code        string `json:"code"`
}

type VerifyPasswordResetResponse struct {
	ResetToken string `json:"resetToken"`
}

type ChangePasswordRequest struct {
	ResetToken string `json:"resetToken"`
	Password   string `json:"password"`
}

type ChangePasswordResponse struct{}

type SignInRequest struct {
	Phonenumber string `json:"phonenumber"`
	Password    string `json:"password"`
}

type SignInResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type MeResponse struct {
	User *User `json:"user"`
}

// MemberInput is a member as submitted when creating a group.
type MemberInput struct {
	Phonenumber string `json:"phonenumber"`
	Num         int    `json:"num"`
}

type CreateGroupRequest struct {
	Name    string        `json:"name"`
	Image   string        `json:"image,omitempty"`
	Members []MemberInput `json:"members"`
}

type CreateGroupResponse struct {
	Group *ledger.GroupSummary `json:"group"`
	// Key is the join code. It is only handed out here and by SMS.
	Key string `json:"key"`
}

// ItemInput is an item as submitted by a member. The creator is always the
// caller.
type ItemInput struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Unit   float64 `json:"unit"`
	Status string  `json:"status"`
}

type AddItemsRequest struct {
	GroupID string      `json:"groupId"`
	Items   []ItemInput `json:"items"`
}

type AddItemsResponse struct {
	Group *ledger.GroupSummary `json:"group"`
}

type JoinGroupRequest struct {
	Key string `json:"key"`
}

type JoinGroupResponse struct {
	Group *ledger.GroupSummary `json:"group"`
}

type AdjustBalanceRequest struct {
	GroupID string  `json:"groupId"`
	Amount  float64 `json:"amount"`
}

type AdjustBalanceResponse struct {
	Group *ledger.GroupSummary `json:"group"`
}

type ListGroupsResponse struct {
	Groups []ledger.GroupSummary `json:"groups"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

// GetGroupResponse carries an empty group when the caller has no group
// with the requested ID.
type GetGroupResponse struct {
	Group *ledger.GroupSummary `json:"group"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
}

// SetGroupDisabledRequest is only accepted from the group creator.
type SetGroupDisabledRequest struct {
	GroupID  string `json:"groupId"`
	Disabled bool   `json:"disabled"`
}

type SetGroupDisabledResponse struct {
	Group *ledger.GroupSummary `json:"group"`
}

// Adjustment is one manual balance change, newest first in responses.
type Adjustment struct {
	Phonenumber string  `json:"phonenumber"`
	Amount      float64 `json:"amount"`
	CreatedAt   int64   `json:"createdAt"`
}

type GetGroupBalancesResponse struct {
	Balances    *ledger.BalanceReport `json:"balances"`
	Adjustments []Adjustment          `json:"adjustments"`
}
