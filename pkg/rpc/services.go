package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	AuthServiceName  = "godutch.v1.AuthService"
	UserServiceName  = "godutch.v1.UserService"
	GroupServiceName = "godutch.v1.GroupService"
)

const (
	AuthServiceSignUpProcedure               = "/" + AuthServiceName + "/SignUp"
	AuthServiceVerifyProcedure               = "/" + AuthServiceName + "/Verify"
	AuthServiceResendCodeProcedure           = "/" + AuthServiceName + "/ResendCode"
	AuthServiceRequestPasswordResetProcedure = "/" + AuthServiceName + "/RequestPasswordReset"
	AuthServiceVerifyPasswordResetProcedure  = "/" + AuthServiceName + "/VerifyPasswordReset"
	AuthServiceChangePasswordProcedure       = "/" + AuthServiceName + "/ChangePassword"
	AuthServiceSignInProcedure               = "/" + AuthServiceName + "/SignIn"

	UserServiceMeProcedure = "/" + UserServiceName + "/Me"

	GroupServiceCreateGroupProcedure      = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceAddItemsProcedure         = "/" + GroupServiceName + "/AddItems"
	GroupServiceJoinGroupProcedure        = "/" + GroupServiceName + "/JoinGroup"
	GroupServiceAddBalanceProcedure       = "/" + GroupServiceName + "/AddBalance"
	GroupServiceReduceBalanceProcedure    = "/" + GroupServiceName + "/ReduceBalance"
	GroupServiceListGroupsProcedure       = "/" + GroupServiceName + "/ListGroups"
	GroupServiceGetGroupProcedure         = "/" + GroupServiceName + "/GetGroup"
	GroupServiceGetGroupBalancesProcedure = "/" + GroupServiceName + "/GetGroupBalances"
	GroupServiceSetGroupDisabledProcedure = "/" + GroupServiceName + "/SetGroupDisabled"
)

// AuthServiceHandler is implemented by the account service.
type AuthServiceHandler interface {
	SignUp(context.Context, *connect.Request[SignUpRequest]) (*connect.Response[SignUpResponse], error)
	Verify(context.Context, *connect.Request[VerifyRequest]) (*connect.Response[VerifyResponse], error)
	ResendCode(context.Context, *connect.Request[ResendCodeRequest]) (*connect.Response[ResendCodeResponse], error)
	RequestPasswordReset(context.Context, *connect.Request[RequestPasswordResetRequest]) (*connect.Response[RequestPasswordResetResponse], error)
	VerifyPasswordReset(context.Context, *connect.Request[VerifyPasswordResetRequest]) (*connect.Response[VerifyPasswordResetResponse], error)
	ChangePassword(context.Context, *connect.Request[ChangePasswordRequest]) (*connect.Response[ChangePasswordResponse], error)
	SignIn(context.Context, *connect.Request[SignInRequest]) (*connect.Response[SignInResponse], error)
}

// UserServiceHandler is implemented by the current-user service.
type UserServiceHandler interface {
	Me(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[MeResponse], error)
}

// GroupServiceHandler is implemented by the group service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	AddItems(context.Context, *connect.Request[AddItemsRequest]) (*connect.Response[AddItemsResponse], error)
	JoinGroup(context.Context, *connect.Request[JoinGroupRequest]) (*connect.Response[JoinGroupResponse], error)
	AddBalance(context.Context, *connect.Request[AdjustBalanceRequest]) (*connect.Response[AdjustBalanceResponse], error)
	ReduceBalance(context.Context, *connect.Request[AdjustBalanceRequest]) (*connect.Response[AdjustBalanceResponse], error)
	ListGroups(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListGroupsResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	SetGroupDisabled(context.Context, *connect.Request[SetGroupDisabledRequest]) (*connect.Response[SetGroupDisabledResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceSignUpProcedure, connect.NewUnaryHandler(AuthServiceSignUpProcedure, svc.SignUp, opts...))
	mux.Handle(AuthServiceVerifyProcedure, connect.NewUnaryHandler(AuthServiceVerifyProcedure, svc.Verify, opts...))
	mux.Handle(AuthServiceResendCodeProcedure, connect.NewUnaryHandler(AuthServiceResendCodeProcedure, svc.ResendCode, opts...))
	mux.Handle(AuthServiceRequestPasswordResetProcedure, connect.NewUnaryHandler(AuthServiceRequestPasswordResetProcedure, svc.RequestPasswordReset, opts...))
	mux.Handle(AuthServiceVerifyPasswordResetProcedure, connect.NewUnaryHandler(AuthServiceVerifyPasswordResetProcedure, svc.VerifyPasswordReset, opts...))
	mux.Handle(AuthServiceChangePasswordProcedure, connect.NewUnaryHandler(AuthServiceChangePasswordProcedure, svc.ChangePassword, opts...))
	mux.Handle(AuthServiceSignInProcedure, connect.NewUnaryHandler(AuthServiceSignInProcedure, svc.SignIn, opts...))
	return "/" + AuthServiceName + "/", mux
}

// NewUserServiceHandler builds an HTTP handler from the service implementation.
func NewUserServiceHandler(svc UserServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(UserServiceMeProcedure, connect.NewUnaryHandler(UserServiceMeProcedure, svc.Me, opts...))
	return "/" + UserServiceName + "/", mux
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceAddItemsProcedure, connect.NewUnaryHandler(GroupServiceAddItemsProcedure, svc.AddItems, opts...))
	mux.Handle(GroupServiceJoinGroupProcedure, connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts...))
	mux.Handle(GroupServiceAddBalanceProcedure, connect.NewUnaryHandler(GroupServiceAddBalanceProcedure, svc.AddBalance, opts...))
	mux.Handle(GroupServiceReduceBalanceProcedure, connect.NewUnaryHandler(GroupServiceReduceBalanceProcedure, svc.ReduceBalance, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceGetGroupProcedure, connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(GroupServiceGetGroupBalancesProcedure, connect.NewUnaryHandler(GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...))
	mux.Handle(GroupServiceSetGroupDisabledProcedure, connect.NewUnaryHandler(GroupServiceSetGroupDisabledProcedure, svc.SetGroupDisabled, opts...))
	return "/" + GroupServiceName + "/", mux
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

func procedureURL(baseURL, procedure string) string {
	return strings.TrimRight(baseURL, "/") + procedure
}

// AuthServiceClient calls the account service.
type AuthServiceClient struct {
	signUp               *connect.Client[SignUpRequest, SignUpResponse]
	verify               *connect.Client[VerifyRequest, VerifyResponse]
	resendCode           *connect.Client[ResendCodeRequest, ResendCodeResponse]
	requestPasswordReset *connect.Client[RequestPasswordResetRequest, RequestPasswordResetResponse]
	verifyPasswordReset  *connect.Client[VerifyPasswordResetRequest, VerifyPasswordResetResponse]
	changePassword       *connect.Client[ChangePasswordRequest, ChangePasswordResponse]
	signIn               *connect.Client[SignInRequest, SignInResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = clientOptions(opts)
	return &AuthServiceClient{
		signUp:               connect.NewClient[SignUpRequest, SignUpResponse](httpClient, procedureURL(baseURL, AuthServiceSignUpProcedure), opts...),
		verify:               connect.NewClient[VerifyRequest, VerifyResponse](httpClient, procedureURL(baseURL, AuthServiceVerifyProcedure), opts...),
		resendCode:           connect.NewClient[ResendCodeRequest, ResendCodeResponse](httpClient, procedureURL(baseURL, AuthServiceResendCodeProcedure), opts...),
		requestPasswordReset: connect.NewClient[RequestPasswordResetRequest, RequestPasswordResetResponse](httpClient, procedureURL(baseURL, AuthServiceRequestPasswordResetProcedure), opts...),
		verifyPasswordReset:  connect.NewClient[VerifyPasswordResetRequest, VerifyPasswordResetResponse](httpClient, procedureURL(baseURL, AuthServiceVerifyPasswordResetProcedure), opts...),
		changePassword:       connect.NewClient[ChangePasswordRequest, ChangePasswordResponse](httpClient, procedureURL(baseURL, AuthServiceChangePasswordProcedure), opts...),
		signIn:               connect.NewClient[SignInRequest, SignInResponse](httpClient, procedureURL(baseURL, AuthServiceSignInProcedure), opts...),
	}
}

func (c *AuthServiceClient) SignUp(ctx context.Context, req *connect.Request[SignUpRequest]) (*connect.Response[SignUpResponse], error) {
	return c.signUp.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Verify(ctx context.Context, req *connect.Request[VerifyRequest]) (*connect.Response[VerifyResponse], error) {
	return c.verify.CallUnary(ctx, req)
}

func (c *AuthServiceClient) ResendCode(ctx context.Context, req *connect.Request[ResendCodeRequest]) (*connect.Response[ResendCodeResponse], error) {
	return c.resendCode.CallUnary(ctx, req)
}

func (c *AuthServiceClient) RequestPasswordReset(ctx context.Context, req *connect.Request[RequestPasswordResetRequest]) (*connect.Response[RequestPasswordResetResponse], error) {
	return c.requestPasswordReset.CallUnary(ctx, req)
}

func (c *AuthServiceClient) VerifyPasswordReset(ctx context.Context, req *connect.Request[VerifyPasswordResetRequest]) (*connect.Response[VerifyPasswordResetResponse], error) {
	return c.verifyPasswordReset.CallUnary(ctx, req)
}

func (c *AuthServiceClient) ChangePassword(ctx context.Context, req *connect.Request[ChangePasswordRequest]) (*connect.Response[ChangePasswordResponse], error) {
	return c.changePassword.CallUnary(ctx, req)
}

func (c *AuthServiceClient) SignIn(ctx context.Context, req *connect.Request[SignInRequest]) (*connect.Response[SignInResponse], error) {
	return c.signIn.CallUnary(ctx, req)
}

// UserServiceClient calls the current-user service.
type UserServiceClient struct {
	me *connect.Client[emptypb.Empty, MeResponse]
}

func NewUserServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *UserServiceClient {
	opts = clientOptions(opts)
	return &UserServiceClient{
		me: connect.NewClient[emptypb.Empty, MeResponse](httpClient, procedureURL(baseURL, UserServiceMeProcedure), opts...),
	}
}

func (c *UserServiceClient) Me(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[MeResponse], error) {
	return c.me.CallUnary(ctx, req)
}

// GroupServiceClient calls the group service.
type GroupServiceClient struct {
	createGroup      *connect.Client[CreateGroupRequest, CreateGroupResponse]
	addItems         *connect.Client[AddItemsRequest, AddItemsResponse]
	joinGroup        *connect.Client[JoinGroupRequest, JoinGroupResponse]
	addBalance       *connect.Client[AdjustBalanceRequest, AdjustBalanceResponse]
	reduceBalance    *connect.Client[AdjustBalanceRequest, AdjustBalanceResponse]
	listGroups       *connect.Client[emptypb.Empty, ListGroupsResponse]
	getGroup         *connect.Client[GetGroupRequest, GetGroupResponse]
	getGroupBalances *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	setGroupDisabled *connect.Client[SetGroupDisabledRequest, SetGroupDisabledResponse]
}

func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:      connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, procedureURL(baseURL, GroupServiceCreateGroupProcedure), opts...),
		addItems:         connect.NewClient[AddItemsRequest, AddItemsResponse](httpClient, procedureURL(baseURL, GroupServiceAddItemsProcedure), opts...),
		joinGroup:        connect.NewClient[JoinGroupRequest, JoinGroupResponse](httpClient, procedureURL(baseURL, GroupServiceJoinGroupProcedure), opts...),
		addBalance:       connect.NewClient[AdjustBalanceRequest, AdjustBalanceResponse](httpClient, procedureURL(baseURL, GroupServiceAddBalanceProcedure), opts...),
		reduceBalance:    connect.NewClient[AdjustBalanceRequest, AdjustBalanceResponse](httpClient, procedureURL(baseURL, GroupServiceReduceBalanceProcedure), opts...),
		listGroups:       connect.NewClient[emptypb.Empty, ListGroupsResponse](httpClient, procedureURL(baseURL, GroupServiceListGroupsProcedure), opts...),
		getGroup:         connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, procedureURL(baseURL, GroupServiceGetGroupProcedure), opts...),
		getGroupBalances: connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, procedureURL(baseURL, GroupServiceGetGroupBalancesProcedure), opts...),
		setGroupDisabled: connect.NewClient[SetGroupDisabledRequest, SetGroupDisabledResponse](httpClient, procedureURL(baseURL, GroupServiceSetGroupDisabledProcedure), opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddItems(ctx context.Context, req *connect.Request[AddItemsRequest]) (*connect.Response[AddItemsResponse], error) {
	return c.addItems.CallUnary(ctx, req)
}

func (c *GroupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[JoinGroupRequest]) (*connect.Response[JoinGroupResponse], error) {
	return c.joinGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddBalance(ctx context.Context, req *connect.Request[AdjustBalanceRequest]) (*connect.Response[AdjustBalanceResponse], error) {
	return c.addBalance.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ReduceBalance(ctx context.Context, req *connect.Request[AdjustBalanceRequest]) (*connect.Response[AdjustBalanceResponse], error) {
	return c.reduceBalance.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *GroupServiceClient) SetGroupDisabled(ctx context.Context, req *connect.Request[SetGroupDisabledRequest]) (*connect.Response[SetGroupDisabledResponse], error) {
	return c.setGroupDisabled.CallUnary(ctx, req)
}
