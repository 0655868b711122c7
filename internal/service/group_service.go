package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/ledger"
	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/models"
	"github.com/mmynk/godutch/internal/notify"
	"github.com/mmynk/godutch/internal/storage"
	"github.com/mmynk/godutch/pkg/rpc"
)

// createAttempts bounds retries when a generated join key collides.
const createAttempts = 3

// GroupService implements the Connect GroupService
type GroupService struct {
	store   storage.Store
	facade  *ledger.Facade
	sender  notify.Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ rpc.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, facade *ledger.Facade, sender notify.Sender, m *metrics.Metrics, logger *slog.Logger) *GroupService {
	return &GroupService{
		store:   store,
		facade:  facade,
		sender:  sender,
		metrics: m,
		logger:  logger,
	}
}

// CreateGroup creates a group owned by the caller. Registered members see
// the group right away; the others get an SMS with the join key.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[rpc.CreateGroupRequest]) (*connect.Response[rpc.CreateGroupResponse], error) {
	caller := middleware.GetPhonenumber(ctx)
	s.logger.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(ErrNameRequired)
	}
	members, err := buildMembers(caller, req.Msg.Members)
	if err != nil {
		return nil, toConnectError(err)
	}

	group := &models.Group{
		Name:    name,
		Image:   req.Msg.Image,
		Creator: caller,
		Members: members,
	}
	for attempt := 1; ; attempt++ {
		err = s.store.CreateGroup(ctx, group)
		if !errors.Is(err, storage.ErrConflict) || attempt == createAttempts {
			break
		}
		s.logger.Warn("Join key collision, retrying", "attempt", attempt)
		group.ID, group.Key = "", ""
	}
	if err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	if err := s.shareGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed to share group", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := s.summarize(caller, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&rpc.CreateGroupResponse{Group: summary, Key: group.Key}), nil
}

// buildMembers validates the submitted members and adds the creator with
// weight 1 when absent. A weight of 0 means 1.
func buildMembers(creator string, inputs []rpc.MemberInput) ([]models.Member, error) {
	members := make([]models.Member, 0, len(inputs)+1)
	seen := make(map[string]bool, len(inputs)+1)

	for _, in := range inputs {
		phone := strings.TrimSpace(in.Phonenumber)
		if phone == "" {
			return nil, fmt.Errorf("%w: phone number is required", ErrInvalidMember)
		}
		if in.Num < 0 {
			return nil, fmt.Errorf("%w: %s has weight %d", ErrInvalidMember, phone, in.Num)
		}
		if seen[phone] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, phone)
		}
		seen[phone] = true

		num := in.Num
		if num == 0 {
			num = 1
		}
		members = append(members, models.Member{Phonenumber: phone, Num: num})
	}

	if !seen[creator] {
		members = append([]models.Member{{Phonenumber: creator, Num: 1}}, members...)
	}
	return members, nil
}

// shareGroup links the group to every registered member and invites the rest.
func (s *GroupService) shareGroup(ctx context.Context, group *models.Group) error {
	phones := make([]string, len(group.Members))
	for i, m := range group.Members {
		phones[i] = m.Phonenumber
	}

	users, err := s.store.GetUsersByPhones(ctx, phones)
	if err != nil {
		return err
	}

	for _, phone := range phones {
		if user, ok := users[phone]; ok {
			if err := s.store.LinkUserToGroup(ctx, user.ID, group.ID); err != nil {
				return err
			}
			continue
		}

		text := fmt.Sprintf("%s added you to %q on Go-Dutch. Sign up and join with key %s", group.Creator, group.Name, group.Key)
		if err := s.sender.Send(ctx, phone, text); err != nil {
			s.logger.Warn("Failed to send invite", "group_id", group.ID, "to", phone, "error", err)
		}
	}
	return nil
}

// AddItems records items paid for by the caller.
func (s *GroupService) AddItems(ctx context.Context, req *connect.Request[rpc.AddItemsRequest]) (*connect.Response[rpc.AddItemsResponse], error) {
	caller := middleware.GetPhonenumber(ctx)
	s.logger.Info("AddItems request received", "group_id", req.Msg.GroupID, "items_count", len(req.Msg.Items))

	group, err := s.memberGroup(ctx, req.Msg.GroupID, caller)
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.Disabled {
		return nil, toConnectError(ErrGroupDisabled)
	}

	items, err := buildItems(caller, req.Msg.Items)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := calculator.ValidateItems(items, group.Members); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.AddItems(ctx, group.ID, items); err != nil {
		s.logger.Error("AddItems failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := s.reload(ctx, caller, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("AddItems successful", "group_id", group.ID, "items_count", len(items))
	return connect.NewResponse(&rpc.AddItemsResponse{Group: summary}), nil
}

// buildItems validates submitted items. An empty status means the
// member-weight policy.
func buildItems(creator string, inputs []rpc.ItemInput) ([]models.Item, error) {
	if len(inputs) == 0 {
		return nil, ErrNoItems
	}

	items := make([]models.Item, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		status := models.SplitPolicy(in.Status)
		if status == "" {
			status = models.ByMemberWeight
		}

		switch {
		case name == "":
			return nil, fmt.Errorf("%w %d: name is required", ErrInvalidItem, i)
		case in.Count <= 0:
			return nil, fmt.Errorf("%w %q: count must be greater than zero", ErrInvalidItem, name)
		case in.Unit <= 0:
			return nil, fmt.Errorf("%w %q: unit must be greater than zero", ErrInvalidItem, name)
		case !status.Valid():
			return nil, fmt.Errorf("%w %q: unknown status %q", ErrInvalidItem, name, in.Status)
		}

		items[i] = models.Item{
			Name:    name,
			Count:   in.Count,
			Unit:    in.Unit,
			Creator: creator,
			Status:  status,
		}
	}
	return items, nil
}

// JoinGroup makes a group visible to the caller, who must already be in its
// member list. Joining twice is harmless.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[rpc.JoinGroupRequest]) (*connect.Response[rpc.JoinGroupResponse], error) {
	caller := middleware.GetPhonenumber(ctx)
	s.logger.Info("JoinGroup request received", "user_id", middleware.GetUserID(ctx))

	key := strings.TrimSpace(req.Msg.Key)
	if key == "" {
		return nil, toConnectError(ErrKeyRequired)
	}

	group, err := s.store.GetGroupByKey(ctx, key)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, ok := group.Member(caller); !ok {
		return nil, toConnectError(ErrCannotJoin)
	}

	if err := s.store.LinkUserToGroup(ctx, middleware.GetUserID(ctx), group.ID); err != nil {
		s.logger.Error("JoinGroup failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := s.summarize(caller, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("JoinGroup successful", "group_id", group.ID)
	return connect.NewResponse(&rpc.JoinGroupResponse{Group: summary}), nil
}

// AddBalance raises the caller's manual balance in the group.
func (s *GroupService) AddBalance(ctx context.Context, req *connect.Request[rpc.AdjustBalanceRequest]) (*connect.Response[rpc.AdjustBalanceResponse], error) {
	s.logger.Info("AddBalance request received", "group_id", req.Msg.GroupID, "amount", req.Msg.Amount)
	return s.adjustBalance(ctx, req.Msg, 1)
}

// ReduceBalance lowers the caller's manual balance in the group.
func (s *GroupService) ReduceBalance(ctx context.Context, req *connect.Request[rpc.AdjustBalanceRequest]) (*connect.Response[rpc.AdjustBalanceResponse], error) {
	s.logger.Info("ReduceBalance request received", "group_id", req.Msg.GroupID, "amount", req.Msg.Amount)
	return s.adjustBalance(ctx, req.Msg, -1)
}

func (s *GroupService) adjustBalance(ctx context.Context, msg *rpc.AdjustBalanceRequest, sign float64) (*connect.Response[rpc.AdjustBalanceResponse], error) {
	caller := middleware.GetPhonenumber(ctx)

	if !(msg.Amount > 0) {
		return nil, toConnectError(ErrAmountNotPositive)
	}

	group, err := s.memberGroup(ctx, msg.GroupID, caller)
	if err != nil {
		return nil, toConnectError(err)
	}

	err = s.store.AdjustBalance(ctx, &models.BalanceAdjustment{
		GroupID:     group.ID,
		Phonenumber: caller,
		Amount:      sign * msg.Amount,
	})
	if err != nil {
		s.logger.Error("Balance adjustment failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := s.reload(ctx, caller, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("Balance adjusted", "group_id", group.ID, "amount", sign*msg.Amount)
	return connect.NewResponse(&rpc.AdjustBalanceResponse{Group: summary}), nil
}

// ListGroups returns a summary of every group linked to the caller.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[rpc.ListGroupsResponse], error) {
	s.logger.Info("ListGroups request received")

	groups, err := s.store.ListGroupsForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	summaries, err := s.facade.Summarize(middleware.GetPhonenumber(ctx), groups)
	s.observeSettlement(err)
	if err != nil {
		s.logger.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("ListGroups successful", "count", len(summaries))
	return connect.NewResponse(&rpc.ListGroupsResponse{Groups: summaries}), nil
}

// GetGroup returns the summary of one of the caller's groups. An unknown ID
// yields an empty group, not an error.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[rpc.GetGroupRequest]) (*connect.Response[rpc.GetGroupResponse], error) {
	s.logger.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if req.Msg.GroupID == "" {
		return nil, toConnectError(ErrGroupIDRequired)
	}

	groups, err := s.store.ListGroupsForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		s.logger.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := s.facade.SummarizeOne(middleware.GetPhonenumber(ctx), groups, req.Msg.GroupID)
	s.observeSettlement(err)
	if err != nil {
		s.logger.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("GetGroup successful", "group_id", req.Msg.GroupID, "found", !summary.IsEmpty())
	return connect.NewResponse(&rpc.GetGroupResponse{Group: summary}), nil
}

// GetGroupBalances settles every member of the group and suggests transfers.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[rpc.GetGroupBalancesRequest]) (*connect.Response[rpc.GetGroupBalancesResponse], error) {
	s.logger.Info("GetGroupBalances request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, req.Msg.GroupID, middleware.GetPhonenumber(ctx))
	if err != nil {
		return nil, toConnectError(err)
	}

	report, err := s.facade.Balances(group)
	s.observeSettlement(err)
	if err != nil {
		s.logger.Error("GetGroupBalances failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	adjustments, err := s.store.ListAdjustments(ctx, group.ID)
	if err != nil {
		s.logger.Error("Failed to list adjustments", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	history := make([]rpc.Adjustment, 0, len(adjustments))
	for _, a := range adjustments {
		history = append(history, rpc.Adjustment{
			Phonenumber: a.Phonenumber,
			Amount:      a.Amount,
			CreatedAt:   a.CreatedAt,
		})
	}

	s.logger.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"members_count", len(report.Members),
		"transfers_count", len(report.Transfers),
		"adjustments_count", len(history),
	)
	return connect.NewResponse(&rpc.GetGroupBalancesResponse{Balances: report, Adjustments: history}), nil
}

// SetGroupDisabled stops or resumes item recording. Creator only.
func (s *GroupService) SetGroupDisabled(ctx context.Context, req *connect.Request[rpc.SetGroupDisabledRequest]) (*connect.Response[rpc.SetGroupDisabledResponse], error) {
	caller := middleware.GetPhonenumber(ctx)
	s.logger.Info("SetGroupDisabled request received", "group_id", req.Msg.GroupID, "disabled", req.Msg.Disabled)

	group, err := s.memberGroup(ctx, req.Msg.GroupID, caller)
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.Creator != caller {
		return nil, toConnectError(fmt.Errorf("group %s: %w", group.ID, ErrNotGroupCreator))
	}

	if err := s.store.SetGroupDisabled(ctx, group.ID, req.Msg.Disabled); err != nil {
		s.logger.Error("SetGroupDisabled failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := s.reload(ctx, caller, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("SetGroupDisabled successful", "group_id", group.ID, "disabled", summary.Disabled)
	return connect.NewResponse(&rpc.SetGroupDisabledResponse{Group: summary}), nil
}

// memberGroup loads a group the caller belongs to.
func (s *GroupService) memberGroup(ctx context.Context, groupID, caller string) (*models.Group, error) {
	if groupID == "" {
		return nil, ErrGroupIDRequired
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := group.Member(caller); !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotGroupMember)
	}
	return group, nil
}

func (s *GroupService) reload(ctx context.Context, caller, groupID string) (*ledger.GroupSummary, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.summarize(caller, group)
}

func (s *GroupService) summarize(caller string, group *models.Group) (*ledger.GroupSummary, error) {
	summaries, err := s.facade.Summarize(caller, []*models.Group{group})
	s.observeSettlement(err)
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

func (s *GroupService) observeSettlement(err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, calculator.ErrNotAMember):
		outcome = "not_a_member"
	case errors.Is(err, calculator.ErrDegenerateGroup):
		outcome = "degenerate_group"
	default:
		outcome = "error"
	}
	s.metrics.Settlements.WithLabelValues(outcome).Inc()
}
