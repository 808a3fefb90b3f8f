package service_test

import (
	"path/filepath"
	"testing"
	"time"

	"go-khata-ledger/internal/model"
	"go-khata-ledger/internal/repository"
	"go-khata-ledger/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) *repository.Gateway {
	t.Helper()
	local, err := repository.OpenLocalStore(filepath.Join(t.TempDir(), "khata.json"))
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	return repository.NewGateway(nil, local)
}

func newKhata(t *testing.T) service.KhataService {
	t.Helper()
	return service.NewKhataService(newGateway(t), nil)
}

func mustContact(t *testing.T, svc service.KhataService, userID uuid.UUID, name string) *model.Contact {
	t.Helper()
	contact, err := svc.CreateContact(userID, &service.ContactRequest{Name: name, Type: model.ContactCustomer})
	require.NoError(t, err)
	return contact
}

func TestContactLifecycle(t *testing.T) {
	svc := newKhata(t)
	userID := uuid.New()

	t.Run("contact requires a name", func(t *testing.T) {
		_, err := svc.CreateContact(userID, &service.ContactRequest{Type: model.ContactCustomer})
		assert.Error(t, err)
	})

	t.Run("contact requires a valid type", func(t *testing.T) {
		_, err := svc.CreateContact(userID, &service.ContactRequest{Name: "Ahmed", Type: "FRIEND"})
		assert.Error(t, err)
	})

	t.Run("phone is optional", func(t *testing.T) {
		contact, err := svc.CreateContact(userID, &service.ContactRequest{Name: "Ahmed", Type: model.ContactCustomer})
		require.NoError(t, err)
		assert.Equal(t, userID, contact.UserID)
		assert.Empty(t, contact.Phone)
	})
}

func TestRecordTransactionRules(t *testing.T) {
	svc := newKhata(t)
	userID := uuid.New()
	contact := mustContact(t, svc, userID, "Ahmed")

	t.Run("amount must be positive", func(t *testing.T) {
		_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: contact.ID,
			Type:      model.TxCreditGiven,
		})
		assert.Error(t, err)
	})

	t.Run("contact must exist and belong to the caller", func(t *testing.T) {
		_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: uuid.New(),
			Amount:    100,
			Type:      model.TxCreditGiven,
		})
		assert.ErrorIs(t, err, service.ErrContactNotFound)

		_, err = svc.RecordTransaction(uuid.New(), &service.TransactionRequest{
			ContactID: contact.ID,
			Amount:    100,
			Type:      model.TxCreditGiven,
		})
		assert.ErrorIs(t, err, service.ErrContactNotFound)
	})

	t.Run("credit with items and no description gets an auto description", func(t *testing.T) {
		tx, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: contact.ID,
			Amount:    250,
			Type:      model.TxCreditGiven,
			Items: []model.TransactionItem{
				{Name: "Rice", Quantity: 2},
				{Name: "Sugar", Quantity: 1},
				{Name: "Tea", Quantity: 3},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "3 Items", tx.Description)
	})

	t.Run("explicit description is kept", func(t *testing.T) {
		tx, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID:   contact.ID,
			Amount:      100,
			Type:        model.TxCreditGiven,
			Description: "Monthly groceries",
			Items:       []model.TransactionItem{{Name: "Rice", Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Monthly groceries", tx.Description)
	})

	t.Run("payment carrying items is accepted with items inert", func(t *testing.T) {
		tx, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: contact.ID,
			Amount:    50,
			Type:      model.TxPaymentReceived,
			Items:     []model.TransactionItem{{Name: "Rice", Quantity: 1}},
		})
		require.NoError(t, err)
		assert.Empty(t, tx.Description)
		assert.Len(t, tx.Items, 1)
	})

	t.Run("invalid date format rejected", func(t *testing.T) {
		_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: contact.ID,
			Amount:    10,
			Type:      model.TxCreditGiven,
			Date:      "05/01/2024",
		})
		assert.Error(t, err)
	})

	t.Run("dates are stored as UTC midnight of the calendar day", func(t *testing.T) {
		tx, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: contact.ID,
			Amount:    10,
			Type:      model.TxCreditGiven,
			Date:      "2024-05-01",
		})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), tx.Date)
		assert.Equal(t, "2024-05-01", tx.DateString())
	})

	t.Run("empty date defaults to today regardless of server zone", func(t *testing.T) {
		tx, err := svc.RecordTransaction(userID, &service.TransactionRequest{
			ContactID: contact.ID,
			Amount:    10,
			Type:      model.TxCreditGiven,
		})
		require.NoError(t, err)
		y, m, d := time.Now().Date()
		assert.Equal(t, time.Date(y, m, d, 0, 0, 0, 0, time.UTC), tx.Date)
	})
}

func TestBalanceScenario(t *testing.T) {
	svc := newKhata(t)
	userID := uuid.New()
	contact := mustContact(t, svc, userID, "Ahmed")

	_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
		ContactID: contact.ID, Amount: 500, Type: model.TxCreditGiven, Date: "2024-05-01",
	})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(userID, &service.TransactionRequest{
		ContactID: contact.ID, Amount: 200, Type: model.TxPaymentReceived, Date: "2024-05-03",
	})
	require.NoError(t, err)

	detail, err := svc.GetContact(userID, contact.ID)
	require.NoError(t, err)
	assert.InDelta(t, 300, detail.Contact.Balance, 1e-9)
	require.NotNil(t, detail.Contact.LastTransactionDate)
	assert.Equal(t, "2024-05-03", *detail.Contact.LastTransactionDate)
	assert.Len(t, detail.Transactions, 2)
}

func TestSettleUp(t *testing.T) {
	svc := newKhata(t)
	userID := uuid.New()
	contact := mustContact(t, svc, userID, "Ahmed")

	t.Run("zero balance has nothing to settle", func(t *testing.T) {
		_, err := svc.SettlementPlan(userID, contact.ID)
		assert.ErrorIs(t, err, service.ErrNothingToSettle)
	})

	_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
		ContactID: contact.ID, Amount: 500, Type: model.TxCreditGiven, Date: "2024-05-01",
	})
	require.NoError(t, err)

	t.Run("plan sizes a payment for a receivable", func(t *testing.T) {
		plan, err := svc.SettlementPlan(userID, contact.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TxPaymentReceived, plan.Type)
		assert.InDelta(t, 500, plan.Amount, 1e-9)
	})

	t.Run("applying the settlement zeroes the balance", func(t *testing.T) {
		tx, err := svc.SettleUp(userID, contact.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TxPaymentReceived, tx.Type)
		assert.InDelta(t, 500, tx.Amount, 1e-9)
		assert.Equal(t, "Full Settlement", tx.Description)

		detail, err := svc.GetContact(userID, contact.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0, detail.Contact.Balance, 1e-9)

		_, err = svc.SettleUp(userID, contact.ID)
		assert.ErrorIs(t, err, service.ErrNothingToSettle)
	})
}

func TestDashboardTotals(t *testing.T) {
	svc := newKhata(t)
	userID := uuid.New()
	customer := mustContact(t, svc, userID, "Customer")
	supplier := mustContact(t, svc, userID, "Supplier")

	_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
		ContactID: customer.ID, Amount: 300, Type: model.TxCreditGiven, Date: "2024-05-01",
	})
	require.NoError(t, err)
	_, err = svc.RecordTransaction(userID, &service.TransactionRequest{
		ContactID: supplier.ID, Amount: 120, Type: model.TxPaymentReceived, Date: "2024-05-02",
	})
	require.NoError(t, err)

	dashboard, err := svc.Dashboard(userID)
	require.NoError(t, err)
	assert.InDelta(t, 300, dashboard.TotalReceivable, 1e-9)
	assert.InDelta(t, 120, dashboard.TotalPayable, 1e-9)
	require.Len(t, dashboard.Contacts, 2)
	// Most recent activity first.
	assert.Equal(t, "Supplier", dashboard.Contacts[0].Name)
}

func TestDeleteContactCascades(t *testing.T) {
	svc := newKhata(t)
	userID := uuid.New()
	contact := mustContact(t, svc, userID, "Ahmed")

	_, err := svc.RecordTransaction(userID, &service.TransactionRequest{
		ContactID: contact.ID, Amount: 100, Type: model.TxCreditGiven, Date: "2024-05-01",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContact(userID, contact.ID))

	txs, err := svc.ListTransactions(userID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = svc.GetContact(userID, contact.ID)
	assert.ErrorIs(t, err, service.ErrContactNotFound)
}
