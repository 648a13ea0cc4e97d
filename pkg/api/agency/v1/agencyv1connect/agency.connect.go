// Package agencyv1connect wires agency.v1.AgencyService to connect-go
// clients and handlers.
package agencyv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
)

// AgencyServiceName is the fully-qualified name of the AgencyService service.
const AgencyServiceName = "agency.v1.AgencyService"

// Procedure paths, relative to the server base URL.
const (
	AgencyServiceGetCallerUserProfileProcedure  = "/agency.v1.AgencyService/GetCallerUserProfile"
	AgencyServiceSaveCallerUserProfileProcedure = "/agency.v1.AgencyService/SaveCallerUserProfile"
	AgencyServiceGetCallerRoleProcedure         = "/agency.v1.AgencyService/GetCallerRole"
	AgencyServiceIsCallerAdminProcedure         = "/agency.v1.AgencyService/IsCallerAdmin"
	AgencyServiceGetAllUserProfilesProcedure    = "/agency.v1.AgencyService/GetAllUserProfiles"
	AgencyServiceGetUserProfileProcedure        = "/agency.v1.AgencyService/GetUserProfile"
	AgencyServiceDeleteUserProfileProcedure     = "/agency.v1.AgencyService/DeleteUserProfile"
	AgencyServiceAssignCallerUserRoleProcedure  = "/agency.v1.AgencyService/AssignCallerUserRole"
	AgencyServiceAssignUserRoleProcedure        = "/agency.v1.AgencyService/AssignUserRole"
	AgencyServiceSubmitInquiryProcedure         = "/agency.v1.AgencyService/SubmitInquiry"
	AgencyServiceGetAllInquiriesProcedure       = "/agency.v1.AgencyService/GetAllInquiries"
	AgencyServiceGetInquiryProcedure            = "/agency.v1.AgencyService/GetInquiry"
	AgencyServiceDeleteInquiryProcedure         = "/agency.v1.AgencyService/DeleteInquiry"
	AgencyServiceLoginProcedure                 = "/agency.v1.AgencyService/Login"
)

// AgencyServiceClient is a client for the agency.v1.AgencyService service.
type AgencyServiceClient interface {
	GetCallerUserProfile(context.Context, *connect.Request[agencyv1.GetCallerUserProfileRequest]) (*connect.Response[agencyv1.GetCallerUserProfileResponse], error)
	SaveCallerUserProfile(context.Context, *connect.Request[agencyv1.SaveCallerUserProfileRequest]) (*connect.Response[agencyv1.SaveCallerUserProfileResponse], error)
	GetCallerRole(context.Context, *connect.Request[agencyv1.GetCallerRoleRequest]) (*connect.Response[agencyv1.GetCallerRoleResponse], error)
	IsCallerAdmin(context.Context, *connect.Request[agencyv1.IsCallerAdminRequest]) (*connect.Response[agencyv1.IsCallerAdminResponse], error)
	GetAllUserProfiles(context.Context, *connect.Request[agencyv1.GetAllUserProfilesRequest]) (*connect.Response[agencyv1.GetAllUserProfilesResponse], error)
	GetUserProfile(context.Context, *connect.Request[agencyv1.GetUserProfileRequest]) (*connect.Response[agencyv1.GetUserProfileResponse], error)
	DeleteUserProfile(context.Context, *connect.Request[agencyv1.DeleteUserProfileRequest]) (*connect.Response[agencyv1.DeleteUserProfileResponse], error)
	AssignCallerUserRole(context.Context, *connect.Request[agencyv1.AssignCallerUserRoleRequest]) (*connect.Response[agencyv1.AssignCallerUserRoleResponse], error)
	AssignUserRole(context.Context, *connect.Request[agencyv1.AssignUserRoleRequest]) (*connect.Response[agencyv1.AssignUserRoleResponse], error)
	SubmitInquiry(context.Context, *connect.Request[agencyv1.SubmitInquiryRequest]) (*connect.Response[agencyv1.SubmitInquiryResponse], error)
	GetAllInquiries(context.Context, *connect.Request[agencyv1.GetAllInquiriesRequest]) (*connect.Response[agencyv1.GetAllInquiriesResponse], error)
	GetInquiry(context.Context, *connect.Request[agencyv1.GetInquiryRequest]) (*connect.Response[agencyv1.GetInquiryResponse], error)
	DeleteInquiry(context.Context, *connect.Request[agencyv1.DeleteInquiryRequest]) (*connect.Response[agencyv1.DeleteInquiryResponse], error)
	Login(context.Context, *connect.Request[agencyv1.LoginRequest]) (*connect.Response[agencyv1.LoginResponse], error)
}

// NewAgencyServiceClient constructs a client for agency.v1.AgencyService.
// The JSON codec is always installed; caller options are applied after it.
func NewAgencyServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AgencyServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(agencyv1.JSONCodec{})}, opts...)
	query := append([]connect.ClientOption{connect.WithIdempotency(connect.IdempotencyNoSideEffects)}, opts...)
	return &agencyServiceClient{
		getCallerUserProfile:  connect.NewClient[agencyv1.GetCallerUserProfileRequest, agencyv1.GetCallerUserProfileResponse](httpClient, baseURL+AgencyServiceGetCallerUserProfileProcedure, query...),
		saveCallerUserProfile: connect.NewClient[agencyv1.SaveCallerUserProfileRequest, agencyv1.SaveCallerUserProfileResponse](httpClient, baseURL+AgencyServiceSaveCallerUserProfileProcedure, opts...),
		getCallerRole:         connect.NewClient[agencyv1.GetCallerRoleRequest, agencyv1.GetCallerRoleResponse](httpClient, baseURL+AgencyServiceGetCallerRoleProcedure, query...),
		isCallerAdmin:         connect.NewClient[agencyv1.IsCallerAdminRequest, agencyv1.IsCallerAdminResponse](httpClient, baseURL+AgencyServiceIsCallerAdminProcedure, query...),
		getAllUserProfiles:    connect.NewClient[agencyv1.GetAllUserProfilesRequest, agencyv1.GetAllUserProfilesResponse](httpClient, baseURL+AgencyServiceGetAllUserProfilesProcedure, query...),
		getUserProfile:        connect.NewClient[agencyv1.GetUserProfileRequest, agencyv1.GetUserProfileResponse](httpClient, baseURL+AgencyServiceGetUserProfileProcedure, query...),
		deleteUserProfile:     connect.NewClient[agencyv1.DeleteUserProfileRequest, agencyv1.DeleteUserProfileResponse](httpClient, baseURL+AgencyServiceDeleteUserProfileProcedure, opts...),
		assignCallerUserRole:  connect.NewClient[agencyv1.AssignCallerUserRoleRequest, agencyv1.AssignCallerUserRoleResponse](httpClient, baseURL+AgencyServiceAssignCallerUserRoleProcedure, opts...),
		assignUserRole:        connect.NewClient[agencyv1.AssignUserRoleRequest, agencyv1.AssignUserRoleResponse](httpClient, baseURL+AgencyServiceAssignUserRoleProcedure, opts...),
		submitInquiry:         connect.NewClient[agencyv1.SubmitInquiryRequest, agencyv1.SubmitInquiryResponse](httpClient, baseURL+AgencyServiceSubmitInquiryProcedure, opts...),
		getAllInquiries:       connect.NewClient[agencyv1.GetAllInquiriesRequest, agencyv1.GetAllInquiriesResponse](httpClient, baseURL+AgencyServiceGetAllInquiriesProcedure, query...),
		getInquiry:            connect.NewClient[agencyv1.GetInquiryRequest, agencyv1.GetInquiryResponse](httpClient, baseURL+AgencyServiceGetInquiryProcedure, query...),
		deleteInquiry:         connect.NewClient[agencyv1.DeleteInquiryRequest, agencyv1.DeleteInquiryResponse](httpClient, baseURL+AgencyServiceDeleteInquiryProcedure, opts...),
		login:                 connect.NewClient[agencyv1.LoginRequest, agencyv1.LoginResponse](httpClient, baseURL+AgencyServiceLoginProcedure, opts...),
	}
}

type agencyServiceClient struct {
	getCallerUserProfile  *connect.Client[agencyv1.GetCallerUserProfileRequest, agencyv1.GetCallerUserProfileResponse]
	saveCallerUserProfile *connect.Client[agencyv1.SaveCallerUserProfileRequest, agencyv1.SaveCallerUserProfileResponse]
	getCallerRole         *connect.Client[agencyv1.GetCallerRoleRequest, agencyv1.GetCallerRoleResponse]
	isCallerAdmin         *connect.Client[agencyv1.IsCallerAdminRequest, agencyv1.IsCallerAdminResponse]
	getAllUserProfiles    *connect.Client[agencyv1.GetAllUserProfilesRequest, agencyv1.GetAllUserProfilesResponse]
	getUserProfile        *connect.Client[agencyv1.GetUserProfileRequest, agencyv1.GetUserProfileResponse]
	deleteUserProfile     *connect.Client[agencyv1.DeleteUserProfileRequest, agencyv1.DeleteUserProfileResponse]
	assignCallerUserRole  *connect.Client[agencyv1.AssignCallerUserRoleRequest, agencyv1.AssignCallerUserRoleResponse]
	assignUserRole        *connect.Client[agencyv1.AssignUserRoleRequest, agencyv1.AssignUserRoleResponse]
	submitInquiry         *connect.Client[agencyv1.SubmitInquiryRequest, agencyv1.SubmitInquiryResponse]
	getAllInquiries       *connect.Client[agencyv1.GetAllInquiriesRequest, agencyv1.GetAllInquiriesResponse]
	getInquiry            *connect.Client[agencyv1.GetInquiryRequest, agencyv1.GetInquiryResponse]
	deleteInquiry         *connect.Client[agencyv1.DeleteInquiryRequest, agencyv1.DeleteInquiryResponse]
	login                 *connect.Client[agencyv1.LoginRequest, agencyv1.LoginResponse]
}

func (c *agencyServiceClient) GetCallerUserProfile(ctx context.Context, req *connect.Request[agencyv1.GetCallerUserProfileRequest]) (*connect.Response[agencyv1.GetCallerUserProfileResponse], error) {
	return c.getCallerUserProfile.CallUnary(ctx, req)
}

func (c *agencyServiceClient) SaveCallerUserProfile(ctx context.Context, req *connect.Request[agencyv1.SaveCallerUserProfileRequest]) (*connect.Response[agencyv1.SaveCallerUserProfileResponse], error) {
	return c.saveCallerUserProfile.CallUnary(ctx, req)
}

func (c *agencyServiceClient) GetCallerRole(ctx context.Context, req *connect.Request[agencyv1.GetCallerRoleRequest]) (*connect.Response[agencyv1.GetCallerRoleResponse], error) {
	return c.getCallerRole.CallUnary(ctx, req)
}

func (c *agencyServiceClient) IsCallerAdmin(ctx context.Context, req *connect.Request[agencyv1.IsCallerAdminRequest]) (*connect.Response[agencyv1.IsCallerAdminResponse], error) {
	return c.isCallerAdmin.CallUnary(ctx, req)
}

func (c *agencyServiceClient) GetAllUserProfiles(ctx context.Context, req *connect.Request[agencyv1.GetAllUserProfilesRequest]) (*connect.Response[agencyv1.GetAllUserProfilesResponse], error) {
	return c.getAllUserProfiles.CallUnary(ctx, req)
}

func (c *agencyServiceClient) GetUserProfile(ctx context.Context, req *connect.Request[agencyv1.GetUserProfileRequest]) (*connect.Response[agencyv1.GetUserProfileResponse], error) {
	return c.getUserProfile.CallUnary(ctx, req)
}

func (c *agencyServiceClient) DeleteUserProfile(ctx context.Context, req *connect.Request[agencyv1.DeleteUserProfileRequest]) (*connect.Response[agencyv1.DeleteUserProfileResponse], error) {
	return c.deleteUserProfile.CallUnary(ctx, req)
}

func (c *agencyServiceClient) AssignCallerUserRole(ctx context.Context, req *connect.Request[agencyv1.AssignCallerUserRoleRequest]) (*connect.Response[agencyv1.AssignCallerUserRoleResponse], error) {
	return c.assignCallerUserRole.CallUnary(ctx, req)
}

func (c *agencyServiceClient) AssignUserRole(ctx context.Context, req *connect.Request[agencyv1.AssignUserRoleRequest]) (*connect.Response[agencyv1.AssignUserRoleResponse], error) {
	return c.assignUserRole.CallUnary(ctx, req)
}

func (c *agencyServiceClient) SubmitInquiry(ctx context.Context, req *connect.Request[agencyv1.SubmitInquiryRequest]) (*connect.Response[agencyv1.SubmitInquiryResponse], error) {
	return c.submitInquiry.CallUnary(ctx, req)
}

func (c *agencyServiceClient) GetAllInquiries(ctx context.Context, req *connect.Request[agencyv1.GetAllInquiriesRequest]) (*connect.Response[agencyv1.GetAllInquiriesResponse], error) {
	return c.getAllInquiries.CallUnary(ctx, req)
}

func (c *agencyServiceClient) GetInquiry(ctx context.Context, req *connect.Request[agencyv1.GetInquiryRequest]) (*connect.Response[agencyv1.GetInquiryResponse], error) {
	return c.getInquiry.CallUnary(ctx, req)
}

func (c *agencyServiceClient) DeleteInquiry(ctx context.Context, req *connect.Request[agencyv1.DeleteInquiryRequest]) (*connect.Response[agencyv1.DeleteInquiryResponse], error) {
	return c.deleteInquiry.CallUnary(ctx, req)
}

func (c *agencyServiceClient) Login(ctx context.Context, req *connect.Request[agencyv1.LoginRequest]) (*connect.Response[agencyv1.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// AgencyServiceHandler is implemented by servers of agency.v1.AgencyService.
type AgencyServiceHandler interface {
	GetCallerUserProfile(context.Context, *connect.Request[agencyv1.GetCallerUserProfileRequest]) (*connect.Response[agencyv1.GetCallerUserProfileResponse], error)
	SaveCallerUserProfile(context.Context, *connect.Request[agencyv1.SaveCallerUserProfileRequest]) (*connect.Response[agencyv1.SaveCallerUserProfileResponse], error)
	GetCallerRole(context.Context, *connect.Request[agencyv1.GetCallerRoleRequest]) (*connect.Response[agencyv1.GetCallerRoleResponse], error)
	IsCallerAdmin(context.Context, *connect.Request[agencyv1.IsCallerAdminRequest]) (*connect.Response[agencyv1.IsCallerAdminResponse], error)
	GetAllUserProfiles(context.Context, *connect.Request[agencyv1.GetAllUserProfilesRequest]) (*connect.Response[agencyv1.GetAllUserProfilesResponse], error)
	GetUserProfile(context.Context, *connect.Request[agencyv1.GetUserProfileRequest]) (*connect.Response[agencyv1.GetUserProfileResponse], error)
	DeleteUserProfile(context.Context, *connect.Request[agencyv1.DeleteUserProfileRequest]) (*connect.Response[agencyv1.DeleteUserProfileResponse], error)
	AssignCallerUserRole(context.Context, *connect.Request[agencyv1.AssignCallerUserRoleRequest]) (*connect.Response[agencyv1.AssignCallerUserRoleResponse], error)
	AssignUserRole(context.Context, *connect.Request[agencyv1.AssignUserRoleRequest]) (*connect.Response[agencyv1.AssignUserRoleResponse], error)
	SubmitInquiry(context.Context, *connect.Request[agencyv1.SubmitInquiryRequest]) (*connect.Response[agencyv1.SubmitInquiryResponse], error)
	GetAllInquiries(context.Context, *connect.Request[agencyv1.GetAllInquiriesRequest]) (*connect.Response[agencyv1.GetAllInquiriesResponse], error)
	GetInquiry(context.Context, *connect.Request[agencyv1.GetInquiryRequest]) (*connect.Response[agencyv1.GetInquiryResponse], error)
	DeleteInquiry(context.Context, *connect.Request[agencyv1.DeleteInquiryRequest]) (*connect.Response[agencyv1.DeleteInquiryResponse], error)
	Login(context.Context, *connect.Request[agencyv1.LoginRequest]) (*connect.Response[agencyv1.LoginResponse], error)
}

// NewAgencyServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewAgencyServiceHandler(svc AgencyServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(agencyv1.JSONCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(AgencyServiceGetCallerUserProfileProcedure, connect.NewUnaryHandler(AgencyServiceGetCallerUserProfileProcedure, svc.GetCallerUserProfile, opts...))
	mux.Handle(AgencyServiceSaveCallerUserProfileProcedure, connect.NewUnaryHandler(AgencyServiceSaveCallerUserProfileProcedure, svc.SaveCallerUserProfile, opts...))
	mux.Handle(AgencyServiceGetCallerRoleProcedure, connect.NewUnaryHandler(AgencyServiceGetCallerRoleProcedure, svc.GetCallerRole, opts...))
	mux.Handle(AgencyServiceIsCallerAdminProcedure, connect.NewUnaryHandler(AgencyServiceIsCallerAdminProcedure, svc.IsCallerAdmin, opts...))
	mux.Handle(AgencyServiceGetAllUserProfilesProcedure, connect.NewUnaryHandler(AgencyServiceGetAllUserProfilesProcedure, svc.GetAllUserProfiles, opts...))
	mux.Handle(AgencyServiceGetUserProfileProcedure, connect.NewUnaryHandler(AgencyServiceGetUserProfileProcedure, svc.GetUserProfile, opts...))
	mux.Handle(AgencyServiceDeleteUserProfileProcedure, connect.NewUnaryHandler(AgencyServiceDeleteUserProfileProcedure, svc.DeleteUserProfile, opts...))
	mux.Handle(AgencyServiceAssignCallerUserRoleProcedure, connect.NewUnaryHandler(AgencyServiceAssignCallerUserRoleProcedure, svc.AssignCallerUserRole, opts...))
	mux.Handle(AgencyServiceAssignUserRoleProcedure, connect.NewUnaryHandler(AgencyServiceAssignUserRoleProcedure, svc.AssignUserRole, opts...))
	mux.Handle(AgencyServiceSubmitInquiryProcedure, connect.NewUnaryHandler(AgencyServiceSubmitInquiryProcedure, svc.SubmitInquiry, opts...))
	mux.Handle(AgencyServiceGetAllInquiriesProcedure, connect.NewUnaryHandler(AgencyServiceGetAllInquiriesProcedure, svc.GetAllInquiries, opts...))
	mux.Handle(AgencyServiceGetInquiryProcedure, connect.NewUnaryHandler(AgencyServiceGetInquiryProcedure, svc.GetInquiry, opts...))
	mux.Handle(AgencyServiceDeleteInquiryProcedure, connect.NewUnaryHandler(AgencyServiceDeleteInquiryProcedure, svc.DeleteInquiry, opts...))
	mux.Handle(AgencyServiceLoginProcedure, connect.NewUnaryHandler(AgencyServiceLoginProcedure, svc.Login, opts...))
	return "/" + AgencyServiceName + "/", mux
}

// UnimplementedAgencyServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAgencyServiceHandler struct{}

func (UnimplementedAgencyServiceHandler) GetCallerUserProfile(context.Context, *connect.Request[agencyv1.GetCallerUserProfileRequest]) (*connect.Response[agencyv1.GetCallerUserProfileResponse], error) {
	return nil, unimplemented("GetCallerUserProfile")
}

func (UnimplementedAgencyServiceHandler) SaveCallerUserProfile(context.Context, *connect.Request[agencyv1.SaveCallerUserProfileRequest]) (*connect.Response[agencyv1.SaveCallerUserProfileResponse], error) {
	return nil, unimplemented("SaveCallerUserProfile")
}

func (UnimplementedAgencyServiceHandler) GetCallerRole(context.Context, *connect.Request[agencyv1.GetCallerRoleRequest]) (*connect.Response[agencyv1.GetCallerRoleResponse], error) {
	return nil, unimplemented("GetCallerRole")
}

func (UnimplementedAgencyServiceHandler) IsCallerAdmin(context.Context, *connect.Request[agencyv1.IsCallerAdminRequest]) (*connect.Response[agencyv1.IsCallerAdminResponse], error) {
	return nil, unimplemented("IsCallerAdmin")
}

func (UnimplementedAgencyServiceHandler) GetAllUserProfiles(context.Context, *connect.Request[agencyv1.GetAllUserProfilesRequest]) (*connect.Response[agencyv1.GetAllUserProfilesResponse], error) {
	return nil, unimplemented("GetAllUserProfiles")
}

func (UnimplementedAgencyServiceHandler) GetUserProfile(context.Context, *connect.Request[agencyv1.GetUserProfileRequest]) (*connect.Response[agencyv1.GetUserProfileResponse], error) {
	return nil, unimplemented("GetUserProfile")
}

func (UnimplementedAgencyServiceHandler) DeleteUserProfile(context.Context, *connect.Request[agencyv1.DeleteUserProfileRequest]) (*connect.Response[agencyv1.DeleteUserProfileResponse], error) {
	return nil, unimplemented("DeleteUserProfile")
}

func (UnimplementedAgencyServiceHandler) AssignCallerUserRole(context.Context, *connect.Request[agencyv1.AssignCallerUserRoleRequest]) (*connect.Response[agencyv1.AssignCallerUserRoleResponse], error) {
	return nil, unimplemented("AssignCallerUserRole")
}

func (UnimplementedAgencyServiceHandler) AssignUserRole(context.Context, *connect.Request[agencyv1.AssignUserRoleRequest]) (*connect.Response[agencyv1.AssignUserRoleResponse], error) {
	return nil, unimplemented("AssignUserRole")
}

func (UnimplementedAgencyServiceHandler) SubmitInquiry(context.Context, *connect.Request[agencyv1.SubmitInquiryRequest]) (*connect.Response[agencyv1.SubmitInquiryResponse], error) {
	return nil, unimplemented("SubmitInquiry")
}

func (UnimplementedAgencyServiceHandler) GetAllInquiries(context.Context, *connect.Request[agencyv1.GetAllInquiriesRequest]) (*connect.Response[agencyv1.GetAllInquiriesResponse], error) {
	return nil, unimplemented("GetAllInquiries")
}

func (UnimplementedAgencyServiceHandler) GetInquiry(context.Context, *connect.Request[agencyv1.GetInquiryRequest]) (*connect.Response[agencyv1.GetInquiryResponse], error) {
	return nil, unimplemented("GetInquiry")
}

func (UnimplementedAgencyServiceHandler) DeleteInquiry(context.Context, *connect.Request[agencyv1.DeleteInquiryRequest]) (*connect.Response[agencyv1.DeleteInquiryResponse], error) {
	return nil, unimplemented("DeleteInquiry")
}

func (UnimplementedAgencyServiceHandler) Login(context.Context, *connect.Request[agencyv1.LoginRequest]) (*connect.Response[agencyv1.LoginResponse], error) {
	return nil, unimplemented("Login")
}

func unimplemented(method string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New("agency.v1.AgencyService."+method+" is not implemented"))
}
