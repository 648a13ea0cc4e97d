package server

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/db/models"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/services/agency"
	agencyv1 "github.com/caffeinepub/agencydesk/pkg/api/agency/v1"
	"github.com/caffeinepub/agencydesk/pkg/api/agency/v1/agencyv1connect"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// AgencyServiceHandler wires the agency service to Connect RPC contracts.
type AgencyServiceHandler struct {
	svc    *agency.Service
	logger *slog.Logger
}

var _ agencyv1connect.AgencyServiceHandler = (*AgencyServiceHandler)(nil)

// NewAgencyServiceHandler constructs a handler backed by the provided service.
func NewAgencyServiceHandler(svc *agency.Service, logger *slog.Logger) *AgencyServiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgencyServiceHandler{svc: svc, logger: logger}
}

func (h *AgencyServiceHandler) fail(ctx context.Context, procedure string, err error) error {
	mapped := mapServiceError(err)
	if connect.CodeOf(mapped) == connect.CodeInternal {
		h.logger.ErrorContext(ctx, "rpc failed", "procedure", procedure, "error", err)
	}
	return mapped
}

func (h *AgencyServiceHandler) GetCallerUserProfile(
	ctx context.Context,
	req *connect.Request[agencyv1.GetCallerUserProfileRequest],
) (*connect.Response[agencyv1.GetCallerUserProfileResponse], error) {
	profile, err := h.svc.CallerProfile(ctx)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.GetCallerUserProfileResponse{Profile: profileToWire(profile)}), nil
}

func (h *AgencyServiceHandler) SaveCallerUserProfile(
	ctx context.Context,
	req *connect.Request[agencyv1.SaveCallerUserProfileRequest],
) (*connect.Response[agencyv1.SaveCallerUserProfileResponse], error) {
	if err := h.svc.SaveCallerProfile(ctx, req.Msg.Profile.Name); err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.SaveCallerUserProfileResponse{}), nil
}

func (h *AgencyServiceHandler) GetCallerRole(
	ctx context.Context,
	req *connect.Request[agencyv1.GetCallerRoleRequest],
) (*connect.Response[agencyv1.GetCallerRoleResponse], error) {
	role, err := h.svc.CallerRole(ctx)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.GetCallerRoleResponse{Role: agencyv1.Role(role)}), nil
}

func (h *AgencyServiceHandler) IsCallerAdmin(
	ctx context.Context,
	req *connect.Request[agencyv1.IsCallerAdminRequest],
) (*connect.Response[agencyv1.IsCallerAdminResponse], error) {
	admin, err := h.svc.IsCallerAdmin(ctx)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.IsCallerAdminResponse{IsAdmin: admin}), nil
}

func (h *AgencyServiceHandler) GetAllUserProfiles(
	ctx context.Context,
	req *connect.Request[agencyv1.GetAllUserProfilesRequest],
) (*connect.Response[agencyv1.GetAllUserProfilesResponse], error) {
	profiles, err := h.svc.ListProfiles(ctx)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	entries := make([]agencyv1.ProfileEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, agencyv1.ProfileEntry{
			Owner:   p.Owner,
			Profile: agencyv1.UserProfile{Name: p.Name},
		})
	}
	return connect.NewResponse(&agencyv1.GetAllUserProfilesResponse{Profiles: entries}), nil
}

func (h *AgencyServiceHandler) GetUserProfile(
	ctx context.Context,
	req *connect.Request[agencyv1.GetUserProfileRequest],
) (*connect.Response[agencyv1.GetUserProfileResponse], error) {
	profile, err := h.svc.GetProfile(ctx, req.Msg.Owner)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.GetUserProfileResponse{Profile: profileToWire(profile)}), nil
}

func (h *AgencyServiceHandler) DeleteUserProfile(
	ctx context.Context,
	req *connect.Request[agencyv1.DeleteUserProfileRequest],
) (*connect.Response[agencyv1.DeleteUserProfileResponse], error) {
	if err := h.svc.DeleteProfile(ctx, req.Msg.Owner); err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.DeleteUserProfileResponse{}), nil
}

func (h *AgencyServiceHandler) AssignCallerUserRole(
	ctx context.Context,
	req *connect.Request[agencyv1.AssignCallerUserRoleRequest],
) (*connect.Response[agencyv1.AssignCallerUserRoleResponse], error) {
	if err := h.svc.AssignCallerRole(ctx, string(req.Msg.Role)); err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.AssignCallerUserRoleResponse{}), nil
}

func (h *AgencyServiceHandler) AssignUserRole(
	ctx context.Context,
	req *connect.Request[agencyv1.AssignUserRoleRequest],
) (*connect.Response[agencyv1.AssignUserRoleResponse], error) {
	if err := h.svc.AssignRole(ctx, req.Msg.Target, string(req.Msg.Role)); err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.AssignUserRoleResponse{}), nil
}

func (h *AgencyServiceHandler) SubmitInquiry(
	ctx context.Context,
	req *connect.Request[agencyv1.SubmitInquiryRequest],
) (*connect.Response[agencyv1.SubmitInquiryResponse], error) {
	id, err := h.svc.SubmitInquiry(ctx, inquiryFromWire(req.Msg.Inquiry))
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.SubmitInquiryResponse{Id: id}), nil
}

func (h *AgencyServiceHandler) GetAllInquiries(
	ctx context.Context,
	req *connect.Request[agencyv1.GetAllInquiriesRequest],
) (*connect.Response[agencyv1.GetAllInquiriesResponse], error) {
	rows, err := h.svc.ListInquiries(ctx)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	entries := make([]agencyv1.InquiryEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, agencyv1.InquiryEntry{Id: rows[i].ID, Inquiry: inquiryToWire(&rows[i])})
	}
	return connect.NewResponse(&agencyv1.GetAllInquiriesResponse{Inquiries: entries}), nil
}

func (h *AgencyServiceHandler) GetInquiry(
	ctx context.Context,
	req *connect.Request[agencyv1.GetInquiryRequest],
) (*connect.Response[agencyv1.GetInquiryResponse], error) {
	row, err := h.svc.GetInquiry(ctx, req.Msg.Id)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	resp := &agencyv1.GetInquiryResponse{}
	if row != nil {
		in := inquiryToWire(row)
		resp.Inquiry = &in
	}
	return connect.NewResponse(resp), nil
}

func (h *AgencyServiceHandler) DeleteInquiry(
	ctx context.Context,
	req *connect.Request[agencyv1.DeleteInquiryRequest],
) (*connect.Response[agencyv1.DeleteInquiryResponse], error) {
	if err := h.svc.DeleteInquiry(ctx, req.Msg.Id); err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.DeleteInquiryResponse{}), nil
}

func (h *AgencyServiceHandler) Login(
	ctx context.Context,
	req *connect.Request[agencyv1.LoginRequest],
) (*connect.Response[agencyv1.LoginResponse], error) {
	tok, err := h.svc.Login(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		return nil, h.fail(ctx, req.Spec().Procedure, err)
	}
	return connect.NewResponse(&agencyv1.LoginResponse{
		Token:     tok.Token,
		Principal: tok.Principal,
		ExpiresAt: tok.ExpiresAt,
	}), nil
}

func profileToWire(p *models.Profile) *agencyv1.UserProfile {
	if p == nil {
		return nil
	}
	return &agencyv1.UserProfile{Name: p.Name}
}

func inquiryToWire(in *models.Inquiry) agencyv1.Inquiry {
	return agencyv1.Inquiry{
		FullName:        in.FullName,
		EmailAddress:    in.EmailAddress,
		PhoneNumber:     in.PhoneNumber,
		CompanyName:     in.CompanyName,
		WebsiteType:     in.WebsiteType,
		Features:        in.Features,
		Budget:          in.Budget,
		Deadline:        in.Deadline,
		AdditionalNotes: in.AdditionalNotes,
	}
}

func inquiryFromWire(in agencyv1.Inquiry) sdk.Inquiry {
	return sdk.Inquiry{
		FullName:        in.FullName,
		EmailAddress:    in.EmailAddress,
		PhoneNumber:     in.PhoneNumber,
		CompanyName:     in.CompanyName,
		WebsiteType:     in.WebsiteType,
		Features:        in.Features,
		Budget:          in.Budget,
		Deadline:        in.Deadline,
		AdditionalNotes: in.AdditionalNotes,
	}
}
