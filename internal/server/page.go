package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/internal/wallet"
	"go.uber.org/zap"
)

const (
	tabHome  = "home"
	tabUTXOs = "utxos"

	dashboardTemplate = "dashboard.tmpl"
)

type pageData struct {
	View  *model.DashboardView
	Tab   string
	Error string
}

func (s *Server) indexHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.DashboardQuery
		if err := ctx.ShouldBindQuery(&req); err != nil {
			req = model.DashboardQuery{}
		}
		r := registry(ctx)
		var errMsg string
		if req.Wallet != "" {
			err := r.Select(req.Wallet)
			s.metrics.RegistryMutation("select", err)
			if err != nil {
				errMsg = err.Error()
			}
		}
		s.renderPage(ctx, r, http.StatusOK, req, "", errMsg)
	}
}

func (s *Server) addWalletPageHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.AddWalletRequest
		_ = ctx.ShouldBind(&req)
		r := registry(ctx)
		notice, err := addWallet(r, req)
		s.metrics.RegistryMutation("add", err)
		if err != nil {
			s.renderPage(ctx, r, errorStatus(err), model.DashboardQuery{}, "", err.Error())
			return
		}
		s.renderPage(ctx, r, http.StatusOK, model.DashboardQuery{}, notice, "")
	}
}

func (s *Server) removeWalletPageHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.WalletNameRequest
		_ = ctx.ShouldBind(&req)
		r := registry(ctx)
		err := r.Remove(req.Name)
		s.metrics.RegistryMutation("remove", err)
		if err != nil {
			s.renderPage(ctx, r, errorStatus(err), model.DashboardQuery{}, "", err.Error())
			return
		}
		s.renderPage(ctx, r, http.StatusOK, model.DashboardQuery{}, fmt.Sprintf("Wallet %q removed.", req.Name), "")
	}
}

func (s *Server) selectWalletPageHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.WalletNameRequest
		_ = ctx.ShouldBind(&req)
		r := registry(ctx)
		err := r.Select(req.Name)
		s.metrics.RegistryMutation("select", err)
		if err != nil {
			s.renderPage(ctx, r, errorStatus(err), model.DashboardQuery{}, "", err.Error())
			return
		}
		s.renderPage(ctx, r, http.StatusOK, model.DashboardQuery{}, "", "")
	}
}

// renderPage recomputes the view and renders the HTML dashboard. A failed
// mutation still renders the unchanged registry along with errMsg.
func (s *Server) renderPage(ctx *gin.Context, r *wallet.Registry, code int, q model.DashboardQuery, notice, errMsg string) {
	view, err := s.buildView(ctx, r, q.Page, q.PageSize)
	if err != nil {
		s.logger.Error("buildView", zap.Error(err))
		ctx.String(http.StatusInternalServerError, err.Error())
		return
	}
	view.Notice = notice

	tab := q.Tab
	if tab != tabUTXOs {
		tab = tabHome
	}
	ctx.HTML(code, dashboardTemplate, pageData{
		View:  view,
		Tab:   tab,
		Error: errMsg,
	})
}
