package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-khata-ledger/internal/ledger"
	"go-khata-ledger/internal/model"
	"go-khata-ledger/internal/repository"
	"go-khata-ledger/internal/ws"
	"go-khata-ledger/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrNothingToSettle = errors.New("balance is already settled")
)

type KhataService interface {
	Dashboard(userID uuid.UUID) (*DashboardResponse, error)
	ListContacts(userID uuid.UUID) ([]model.ContactWithBalance, error)
	GetContact(userID, contactID uuid.UUID) (*ContactDetail, error)
	CreateContact(userID uuid.UUID, req *ContactRequest) (*model.Contact, error)
	UpdateContact(userID, contactID uuid.UUID, req *ContactRequest) error
	DeleteContact(userID, contactID uuid.UUID) error
	ListTransactions(userID uuid.UUID) ([]model.Transaction, error)
	RecordTransaction(userID uuid.UUID, req *TransactionRequest) (*model.Transaction, error)
	SettlementPlan(userID, contactID uuid.UUID) (*Settlement, error)
	SettleUp(userID, contactID uuid.UUID) (*model.Transaction, error)
}

type ContactRequest struct {
	Name  string            `json:"name" validate:"required"`
	Phone string            `json:"phone"`
	Type  model.ContactType `json:"type" validate:"required,oneof=CUSTOMER SUPPLIER"`
}

type TransactionRequest struct {
	ContactID   uuid.UUID               `json:"contact_id" validate:"uuid_required"`
	Amount      float64                 `json:"amount" validate:"required,gt=0"`
	Type        model.TransactionType   `json:"type" validate:"required,oneof=CREDIT_GIVEN PAYMENT_RECEIVED"`
	Description string                  `json:"description"`
	Items       []model.TransactionItem `json:"items,omitempty" validate:"omitempty,dive"`
	Date        string                  `json:"date"` // YYYY-MM-DD, defaults to today
}

// DashboardResponse is the khata overview: all contacts ranked by recency
// with their balances, plus aggregate receivable/payable totals.
type DashboardResponse struct {
	Contacts        []model.ContactWithBalance `json:"contacts"`
	TotalReceivable float64                    `json:"total_receivable"`
	TotalPayable    float64                    `json:"total_payable"`
}

type ContactDetail struct {
	Contact      model.ContactWithBalance `json:"contact"`
	Transactions []model.Transaction      `json:"transactions"`
}

// Settlement describes the transaction that would zero out a contact's
// current balance.
type Settlement struct {
	Type   model.TransactionType `json:"type"`
	Amount float64               `json:"amount"`
}

type khataService struct {
	gateway *repository.Gateway
	wsHub   *ws.Hub
}

func NewKhataService(gateway *repository.Gateway, hub *ws.Hub) KhataService {
	return &khataService{gateway: gateway, wsHub: hub}
}

// notify pushes a ledger_update event to the owner's connected clients so
// open tabs refresh after a write.
func (s *khataService) notify(userID uuid.UUID, action string, data interface{}) {
	if s.wsHub == nil {
		return
	}
	go func() {
		payload := map[string]interface{}{
			"type":   "ledger_update",
			"action": action,
			"data":   data,
		}
		msg, _ := json.Marshal(payload)
		s.wsHub.Broadcast <- ws.Event{UserID: userID, Payload: msg}
	}()
}

func (s *khataService) Dashboard(userID uuid.UUID) (*DashboardResponse, error) {
	contacts, err := s.ListContacts(userID)
	if err != nil {
		return nil, err
	}

	resp := &DashboardResponse{Contacts: contacts}
	for _, c := range contacts {
		if c.Balance > 0 {
			resp.TotalReceivable += c.Balance
		} else {
			resp.TotalPayable += -c.Balance
		}
	}
	return resp, nil
}

func (s *khataService) ListContacts(userID uuid.UUID) ([]model.ContactWithBalance, error) {
	contacts, err := s.gateway.ListContacts(userID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.gateway.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	return ledger.WithBalances(contacts, transactions), nil
}

func (s *khataService) GetContact(userID, contactID uuid.UUID) (*ContactDetail, error) {
	contact, err := s.gateway.FindContact(userID, contactID)
	if err != nil {
		return nil, ErrContactNotFound
	}
	transactions, err := s.gateway.ListTransactions(userID)
	if err != nil {
		return nil, err
	}

	own := make([]model.Transaction, 0)
	for _, tx := range transactions {
		if tx.ContactID == contactID {
			own = append(own, tx)
		}
	}

	views := ledger.WithBalances([]model.Contact{*contact}, transactions)
	return &ContactDetail{Contact: views[0], Transactions: own}, nil
}

func (s *khataService) CreateContact(userID uuid.UUID, req *ContactRequest) (*model.Contact, error) {
	// 1. Validate request
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Save, owned by the caller
	contact := &model.Contact{
		UserID: userID,
		Name:   req.Name,
		Phone:  req.Phone,
		Type:   req.Type,
	}
	if err := s.gateway.CreateContact(contact); err != nil {
		return nil, err
	}

	s.notify(userID, "contact_created", contact)
	return contact, nil
}

func (s *khataService) UpdateContact(userID, contactID uuid.UUID, req *ContactRequest) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// The gateway guards ownership: an update against another user's
	// contact is a silent no-op.
	updates := repository.ContactUpdate{Name: &req.Name, Phone: &req.Phone, Type: &req.Type}
	if err := s.gateway.UpdateContact(userID, contactID, updates); err != nil {
		return err
	}

	s.notify(userID, "contact_updated", idPayload(contactID))
	return nil
}

func (s *khataService) DeleteContact(userID, contactID uuid.UUID) error {
	// Cascades to the contact's transactions inside the backend the delete
	// lands in.
	if err := s.gateway.DeleteContact(userID, contactID); err != nil {
		return err
	}
	s.notify(userID, "contact_deleted", idPayload(contactID))
	return nil
}

func (s *khataService) ListTransactions(userID uuid.UUID) ([]model.Transaction, error) {
	return s.gateway.ListTransactions(userID)
}

func (s *khataService) RecordTransaction(userID uuid.UUID, req *TransactionRequest) (*model.Transaction, error) {
	// 1. Validate input
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. The contact must exist and belong to the caller
	if _, err := s.gateway.FindContact(userID, req.ContactID); err != nil {
		return nil, ErrContactNotFound
	}

	// 3. Resolve the calendar date
	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(model.DateLayout, req.Date)
		if err != nil {
			return nil, errors.New("invalid date format, use YYYY-MM-DD")
		}
		date = parsed
	}
	// Normalize to a UTC midnight on the caller's calendar day; truncating
	// the instant would shift the day in non-UTC server zones.
	y, m, d := date.Date()
	date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	// 4. Description defaulting: a goods-on-credit entry with items but no
	// description gets "<N> Items". Payments keep their items as inert data.
	description := req.Description
	if description == "" && req.Type == model.TxCreditGiven && len(req.Items) > 0 {
		description = fmt.Sprintf("%d Items", len(req.Items))
	}

	tx := &model.Transaction{
		UserID:      userID,
		ContactID:   req.ContactID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: description,
		Items:       req.Items,
		Date:        date,
	}
	if err := s.gateway.CreateTransaction(tx); err != nil {
		return nil, err
	}

	s.notify(userID, "transaction_created", tx)
	return tx, nil
}

func (s *khataService) SettlementPlan(userID, contactID uuid.UUID) (*Settlement, error) {
	if _, err := s.gateway.FindContact(userID, contactID); err != nil {
		return nil, ErrContactNotFound
	}
	transactions, err := s.gateway.ListTransactions(userID)
	if err != nil {
		return nil, err
	}

	txType, amount, ok := ledger.PlanSettlement(ledger.Balance(contactID, transactions))
	if !ok {
		return nil, ErrNothingToSettle
	}
	return &Settlement{Type: txType, Amount: amount}, nil
}

// SettleUp records the transaction that zeroes out the contact's balance.
func (s *khataService) SettleUp(userID, contactID uuid.UUID) (*model.Transaction, error) {
	plan, err := s.SettlementPlan(userID, contactID)
	if err != nil {
		return nil, err
	}
	return s.RecordTransaction(userID, &TransactionRequest{
		ContactID:   contactID,
		Amount:      plan.Amount,
		Type:        plan.Type,
		Description: "Full Settlement",
	})
}

func idPayload(id uuid.UUID) map[string]string {
	return map[string]string{"id": id.String()}
}
