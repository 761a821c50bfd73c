package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/service"
	"github.com/GTDGit/gtd_donate/internal/utils"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/internal/web"
)

// DonateHandler serves the public donation form.
type DonateHandler struct {
	*PageHandler
	donations *service.DonationService
}

// NewDonateHandler creates a new DonateHandler.
func NewDonateHandler(pages *PageHandler, donations *service.DonationService) *DonateHandler {
	return &DonateHandler{PageHandler: pages, donations: donations}
}

// Show handles GET /donate.
func (h *DonateHandler) Show(c *gin.Context) {
	p := h.page(c, "Donate")
	p.Form = validation.DonateForm{}
	c.HTML(http.StatusOK, "donate.html", p)
}

// Submit handles POST /donate. Signed-in donors donate with their token.
// JSON callers get the envelope instead of a page.
func (h *DonateHandler) Submit(c *gin.Context) {
	var form validation.DonateForm
	_ = c.ShouldBind(&form)

	p := h.page(c, "Donate")
	p.Form = form

	if err := validation.Validate(form); err != nil {
		if utils.WantsJSON(c) {
			utils.ValidationError(c, fieldErrors(err))
			return
		}
		p.Errors = fieldErrors(err)
		c.HTML(http.StatusUnprocessableEntity, "donate.html", p)
		return
	}

	token := ""
	if sess, ok := middleware.SessionFrom(c); ok {
		token = sess.Token
	}

	if err := h.donations.Donate(c.Request.Context(), token, form); err != nil {
		if utils.WantsJSON(c) {
			utils.Error(c, userStatus(err), "DONATION_FAILED", service.UserMessage(err, service.MsgDonateFailed))
			return
		}
		p.Flash = &web.Flash{Kind: web.FlashError, Message: service.UserMessage(err, service.MsgDonateFailed)}
		c.HTML(userStatus(err), "donate.html", p)
		return
	}

	if utils.WantsJSON(c) {
		utils.Success(c, http.StatusCreated, "Thank you for your donation!", nil)
		return
	}
	h.setFlash(c, web.FlashSuccess, "Thank you for your donation!")
	c.Redirect(http.StatusSeeOther, "/")
}
