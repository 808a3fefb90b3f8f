package handler

import (
	"errors"

	"go-khata-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type KhataHandler struct {
	service service.KhataService
}

func NewKhataHandler(s service.KhataService) *KhataHandler {
	return &KhataHandler{service: s}
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// GetDashboard returns contacts with balances plus receivable/payable totals
// GET /api/v1/dashboard
func (h *KhataHandler) GetDashboard(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	dashboard, err := h.service.Dashboard(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(dashboard)
}

// GET /api/v1/contacts
func (h *KhataHandler) GetContacts(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	contacts, err := h.service.ListContacts(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(contacts)
}

// GET /api/v1/contacts/:id
func (h *KhataHandler) GetContact(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	contactID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	detail, err := h.service.GetContact(userID, contactID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Contact not found"})
	}
	return c.JSON(detail)
}

// POST /api/v1/contacts
func (h *KhataHandler) CreateContact(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req service.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	contact, err := h.service.CreateContact(userID, &req)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Contact created", "data": contact})
}

// PUT /api/v1/contacts/:id
func (h *KhataHandler) UpdateContact(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	contactID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	var req service.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.UpdateContact(userID, contactID, &req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Contact updated"})
}

// DELETE /api/v1/contacts/:id
func (h *KhataHandler) DeleteContact(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	contactID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	if err := h.service.DeleteContact(userID, contactID); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete contact"})
	}
	return c.JSON(fiber.Map{"message": "Contact deleted"})
}

// GET /api/v1/transactions
func (h *KhataHandler) GetTransactions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	transactions, err := h.service.ListTransactions(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(transactions)
}

// POST /api/v1/transactions
func (h *KhataHandler) CreateTransaction(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	tx, err := h.service.RecordTransaction(userID, &req)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}

// GetSettlement returns the transaction that would zero out the contact's
// balance, without applying it
// GET /api/v1/contacts/:id/settlement
func (h *KhataHandler) GetSettlement(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	contactID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	plan, err := h.service.SettlementPlan(userID, contactID)
	if err != nil {
		if errors.Is(err, service.ErrNothingToSettle) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(plan)
}

// SettleUp records the settlement transaction
// POST /api/v1/contacts/:id/settlement
func (h *KhataHandler) SettleUp(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	contactID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	tx, err := h.service.SettleUp(userID, contactID)
	if err != nil {
		if errors.Is(err, service.ErrNothingToSettle) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Balance settled", "data": tx})
}
