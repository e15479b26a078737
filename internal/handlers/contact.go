package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/forms"
	"github.com/toonarmycaptain/website/internal/middleware"
	"github.com/toonarmycaptain/website/internal/models"
)

const (
	SuccessfulSubmissionFlash = "successful_submission"
	successMessage            = "Thanks for getting in touch! Your message has been sent."
)

// Submitter stores and forwards one contact form submission.
type Submitter interface {
	Submit(ctx context.Context, name, email, message string) (int64, error)
}

type ContactHandler struct {
	site      Site
	submitter Submitter
	validator *forms.ContactValidator
	log       *logrus.Logger
}

func NewContactHandler(site Site, submitter Submitter, validator *forms.ContactValidator, log *logrus.Logger) *ContactHandler {
	return &ContactHandler{
		site:      site,
		submitter: submitter,
		validator: validator,
		log:       log,
	}
}

// ContactForm renders the empty form along with any pending flashes
func (h *ContactHandler) ContactForm(c *gin.Context) {
	h.render(c, http.StatusOK, &forms.ContactForm{}, nil)
}

// SubmitContact validates the form, stores the message and sends the owner a
// notification, then redirects back to the form.
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var form forms.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, &form, map[string]string{"form": "The form could not be read."})
		return
	}

	if errs := h.validator.Validate(&form); len(errs) > 0 {
		h.render(c, http.StatusBadRequest, &form, errs)
		return
	}

	messageID, err := h.submitter.Submit(c.Request.Context(), form.Name, form.Email, form.Message)
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrConstraintViolation):
		h.render(c, http.StatusBadRequest, &form, map[string]string{"form": "Your message could not be accepted. Please check the form and try again."})
		return
	case err != nil:
		h.log.WithError(err).Error("Failed to store contact submission")
		c.HTML(http.StatusInternalServerError, "error", h.site.page("Something went wrong", gin.H{
			"Error": "Your message could not be saved. Please try again later.",
		}))
		return
	}

	if err := middleware.AddFlash(c, SuccessfulSubmissionFlash, successMessage); err != nil {
		h.log.WithError(err).WithField("message_id", messageID).Warn("Failed to save success flash")
	}
	c.Redirect(http.StatusSeeOther, "/contact/")
}

func (h *ContactHandler) render(c *gin.Context, status int, form *forms.ContactForm, errs map[string]string) {
	c.HTML(status, "contact", h.site.page("Contact", gin.H{
		"Form":             form,
		"Errors":           errs,
		"Flashes":          middleware.PopFlashes(c),
		"CSRFToken":        middleware.CSRFToken(c),
		"MessageMaxLength": h.validator.MessageMaxLength(),
	}))
}
