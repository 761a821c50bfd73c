package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/export"
	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/report"
	"github.com/GTDGit/gtd_donate/internal/service"
	"github.com/GTDGit/gtd_donate/internal/utils"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/internal/web"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// deletedParam marks the redirect after a delete; the report then clamps
// its page index to the pages that are left.
const deletedParam = "deleted"

// ReportHandler serves one report variant: the table, CSV export and the
// per-donation view, edit and delete pages.
type ReportHandler struct {
	*PageHandler
	variant   report.Variant
	registry  *report.Registry
	donations *service.DonationService
	exports   *service.ExportService
}

// NewReportHandler creates a new ReportHandler for variant.
func NewReportHandler(pages *PageHandler, variant report.Variant, registry *report.Registry, donations *service.DonationService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{
		PageHandler: pages,
		variant:     variant,
		registry:    registry,
		donations:   donations,
		exports:     exports,
	}
}

func (h *ReportHandler) controller(c *gin.Context) (*report.Controller, *models.Session) {
	sess, _ := middleware.SessionFrom(c)
	return h.registry.Get(sess.ID, h.variant), sess
}

// View handles GET <base>. The query string carries report actions (page,
// limit, search, sortKey, from, to, reset) that change the report state
// before it is fetched.
func (h *ReportHandler) View(c *gin.Context) {
	ctrl, sess := h.controller(c)
	ctx := c.Request.Context()

	var snap report.Snapshot
	params := c.Request.URL.Query()
	if params.Has(deletedParam) {
		snap = ctrl.AfterDelete(ctx, sess.Token)
	} else {
		snap = ctrl.View(ctx, sess.Token, params)
	}

	if utils.WantsJSON(c) {
		if snap.Error != "" && !snap.Loaded {
			utils.Error(c, http.StatusBadGateway, "FETCH_FAILED", snap.Error)
			return
		}
		utils.SuccessWithPagination(c, http.StatusOK, "Donations retrieved", snap, utils.Pagination{
			Page:       snap.Query.Page,
			Limit:      snap.Query.PageSize,
			TotalItems: snap.Page.TotalRecords,
			TotalPages: snap.Page.TotalPages,
		})
		return
	}

	p := h.page(c, h.variant.Title)
	p.Live = "report"
	p.Data = web.NewReportView(h.variant, snap)
	c.HTML(http.StatusOK, "report.html", p)
}

// Export handles GET <base>/export.csv: the loaded page as a CSV download.
func (h *ReportHandler) Export(c *gin.Context) {
	ctrl, sess := h.controller(c)
	ctx := c.Request.Context()

	snap := ctrl.Snapshot()
	if !snap.Loaded {
		snap = ctrl.Refresh(ctx, sess.Token)
	}

	data, err := h.exports.Export(ctx, sess, snap.Page.Rows, h.variant.IsAdmin())
	if err != nil {
		log.Error().Err(err).Str("variant", h.variant.Name).Msg("Failed to encode export")
		utils.Error(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to export donations")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

// row returns the donation id of the loaded report page. Only rows the
// session can see in its report are reachable.
func (h *ReportHandler) row(c *gin.Context) (*report.Controller, *models.Session, donationapi.Donation, bool) {
	ctrl, sess := h.controller(c)
	id := c.Param("id")

	d, ok := ctrl.Row(id)
	if !ok && !ctrl.Snapshot().Loaded {
		ctrl.Refresh(c.Request.Context(), sess.Token)
		d, ok = ctrl.Row(id)
	}
	if !ok {
		if utils.WantsJSON(c) {
			utils.Error(c, http.StatusNotFound, utils.ErrDonationNotFound.Error(), "Donation not found")
		} else {
			c.HTML(http.StatusNotFound, "notfound.html", h.page(c, "Not Found"))
		}
		return nil, nil, donationapi.Donation{}, false
	}
	return ctrl, sess, d, true
}

// Show handles GET <base>/donations/:id.
func (h *ReportHandler) Show(c *gin.Context) {
	_, _, d, ok := h.row(c)
	if !ok {
		return
	}
	if utils.WantsJSON(c) {
		utils.Success(c, http.StatusOK, "Donation retrieved", d)
		return
	}
	p := h.page(c, "Donation")
	p.Data = web.DonationView{Variant: h.variant, Donation: d}
	c.HTML(http.StatusOK, "donation.html", p)
}

// EditPage handles GET <base>/donations/:id/edit, pre-filled from the row.
func (h *ReportHandler) EditPage(c *gin.Context) {
	_, _, d, ok := h.row(c)
	if !ok {
		return
	}
	p := h.page(c, "Edit Donation")
	p.Data = web.DonationView{Variant: h.variant, Donation: d}
	if h.variant.IsAdmin() {
		p.Form = validation.RemarksForm{AdminRemarks: d.AdminRemarks}
	} else {
		p.Form = validation.DonorEditForm{Name: d.Name, Email: d.Email, Message: d.Message}
	}
	c.HTML(http.StatusOK, "edit.html", p)
}

// Edit handles POST <base>/donations/:id/edit. Admins change the remarks
// only; donors change name, email and message. A failed save shows the
// edit page again.
func (h *ReportHandler) Edit(c *gin.Context) {
	_, sess, d, ok := h.row(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	p := h.page(c, "Edit Donation")
	p.Data = web.DonationView{Variant: h.variant, Donation: d}

	var form any
	var save func() error
	if h.variant.IsAdmin() {
		var f validation.RemarksForm
		_ = c.ShouldBind(&f)
		form = f
		save = func() error { return h.donations.UpdateRemarks(ctx, sess, d.ID, f) }
	} else {
		var f validation.DonorEditForm
		_ = c.ShouldBind(&f)
		form = f
		save = func() error { return h.donations.UpdateDonor(ctx, sess, d.ID, f) }
	}
	p.Form = form

	if err := validation.Validate(form); err != nil {
		p.Errors = fieldErrors(err)
		c.HTML(http.StatusUnprocessableEntity, "edit.html", p)
		return
	}
	if err := save(); err != nil {
		p.Flash = &web.Flash{Kind: web.FlashError, Message: service.UserMessage(err, service.MsgUpdateFailed)}
		c.HTML(userStatus(err), "edit.html", p)
		return
	}

	h.setFlash(c, web.FlashSuccess, "Donation updated successfully.")
	c.Redirect(http.StatusSeeOther, h.variant.BasePath)
}

// DeletePage handles GET <base>/donations/:id/delete.
func (h *ReportHandler) DeletePage(c *gin.Context) {
	_, _, d, ok := h.row(c)
	if !ok {
		return
	}
	p := h.page(c, "Delete Donation")
	p.Data = web.DonationView{Variant: h.variant, Donation: d}
	c.HTML(http.StatusOK, "confirm_delete.html", p)
}

// Delete handles POST <base>/donations/:id/delete. Nothing is deleted
// unless the form confirms it.
func (h *ReportHandler) Delete(c *gin.Context) {
	_, sess, d, ok := h.row(c)
	if !ok {
		return
	}

	if c.PostForm("confirm") != "yes" {
		if utils.WantsJSON(c) {
			utils.Error(c, http.StatusBadRequest, utils.ErrNotConfirmed.Error(), "Deletion was not confirmed")
			return
		}
		c.Redirect(http.StatusSeeOther, h.variant.BasePath)
		return
	}

	if err := h.donations.Delete(c.Request.Context(), sess, d.ID); err != nil {
		h.setFlash(c, web.FlashError, service.UserMessage(err, service.MsgDeleteFailed))
		c.Redirect(http.StatusSeeOther, h.variant.BasePath)
		return
	}

	h.setFlash(c, web.FlashSuccess, "Donation deleted successfully.")
	c.Redirect(http.StatusSeeOther, h.variant.BasePath+"?"+deletedParam+"=1")
}
