package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/attachment"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketsHandler exposes the ticket endpoints.
type TicketsHandler struct {
	lifecycle   *service.TicketLifecycle
	thread      *service.NoteThread
	attachments attachment.Store
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.TicketLifecycle, thread *service.NoteThread, attachments attachment.Store) *TicketsHandler {
	return &TicketsHandler{lifecycle: lifecycle, thread: thread, attachments: attachments}
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attachmentRef, err := h.storeUpload(c)
	if err != nil {
		return err
	}

	ticket, err := h.lifecycle.Create(c.Context(), actor, service.TicketCreateInput{
		Title:         req.Title,
		InitialNote:   req.InitialNote,
		CustomerID:    req.CustomerID,
		AttachmentRef: attachmentRef,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Statuses = []domain.TicketStatus{status}
	}

	tickets, err := h.lifecycle.List(c.Context(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.lifecycle.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PUT /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.SetStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AddNote POST /api/tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attachmentRef, err := h.storeUpload(c)
	if err != nil {
		return err
	}

	ticket, err := h.thread.Append(c.Context(), actor, c.Params("id"), req.Text, attachmentRef)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Stats GET /api/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.lifecycle.Stats(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// storeUpload saves a multipart "attachment" file if one was sent and
// returns its opaque reference.
func (h *TicketsHandler) storeUpload(c *fiber.Ctx) (*string, error) {
	fileHeader, err := c.FormFile("attachment")
	if err != nil || fileHeader == nil {
		return nil, nil
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable attachment", nil)
	}
	defer file.Close()

	ref, err := h.attachments.Save(fileHeader.Filename, file)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &ref, nil
}

func customerRef(user *domain.User) dto.CustomerRef {
	if user == nil {
		return dto.CustomerRef{}
	}
	return dto.CustomerRef{ID: user.ID, Name: user.Name, Email: user.Email}
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:        ticket.ID,
		DisplayID: ticket.DisplayID,
		Title:     ticket.Title,
		Status:    string(ticket.Status),
		Customer:  customerRef(ticket.Customer),
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	notes := make([]dto.NoteResponse, 0, len(ticket.Notes))
	for i := range ticket.Notes {
		notes = append(notes, noteResponse(&ticket.Notes[i]))
	}
	return dto.TicketResponse{
		ID:        ticket.ID,
		DisplayID: ticket.DisplayID,
		Title:     ticket.Title,
		Status:    string(ticket.Status),
		Customer:  customerRef(ticket.Customer),
		Notes:     notes,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	author := dto.NoteAuthor{ID: note.AuthorID, Role: string(note.AuthorRole)}
	if note.Author != nil {
		author.Name = note.Author.Name
	}
	return dto.NoteResponse{
		ID:         note.ID,
		Text:       note.Text,
		CreatedBy:  author,
		Attachment: note.AttachmentRef,
		CreatedAt:  note.CreatedAt,
	}
}
