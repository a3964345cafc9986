package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wx-shi/utxo-dashboard/internal/model"
	"github.com/wx-shi/utxo-dashboard/internal/wallet"
	"github.com/wx-shi/utxo-dashboard/pkg"
	"go.uber.org/zap"
)

func (s *Server) healthHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"code": http.StatusOK,
			"data": gin.H{"sessions": s.sessions.Len()},
		})
	}
}

func (s *Server) dashboardHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.DashboardQuery
		if err := ctx.ShouldBindQuery(&req); err != nil {
			s.replyError(ctx, http.StatusBadRequest, err)
			return
		}
		r := registry(ctx)
		if req.Wallet != "" {
			err := r.Select(req.Wallet)
			s.metrics.RegistryMutation("select", err)
			if err != nil {
				s.replyError(ctx, errorStatus(err), err)
				return
			}
		}
		s.replyView(ctx, r, req.Page, req.PageSize, "")
	}
}

func (s *Server) walletsHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		wallets, selected, err := snapshot(registry(ctx))
		if err != nil {
			s.replyError(ctx, errorStatus(err), err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"code": http.StatusOK,
			"data": model.WalletsReply{
				Wallets:  wallets,
				Selected: selected.Name,
			},
		})
	}
}

func (s *Server) addWalletHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.AddWalletRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			s.replyError(ctx, http.StatusBadRequest, err)
			return
		}
		r := registry(ctx)
		notice, err := addWallet(r, req)
		s.metrics.RegistryMutation("add", err)
		if err != nil {
			s.replyError(ctx, errorStatus(err), err)
			return
		}
		s.replyView(ctx, r, 0, 0, notice)
	}
}

func (s *Server) removeWalletHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		name := ctx.Param("name")
		r := registry(ctx)
		err := r.Remove(name)
		s.metrics.RegistryMutation("remove", err)
		if err != nil {
			s.replyError(ctx, errorStatus(err), err)
			return
		}
		s.replyView(ctx, r, 0, 0, fmt.Sprintf("Wallet %q removed.", name))
	}
}

func (s *Server) selectWalletHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.WalletNameRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			s.replyError(ctx, http.StatusBadRequest, err)
			return
		}
		r := registry(ctx)
		err := r.Select(req.Name)
		s.metrics.RegistryMutation("select", err)
		if err != nil {
			s.replyError(ctx, errorStatus(err), err)
			return
		}
		s.replyView(ctx, r, 0, 0, "")
	}
}

func (s *Server) validateAddressHandle() func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		var req model.ValidateAddressRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			s.replyError(ctx, http.StatusBadRequest, err)
			return
		}
		reply := model.ValidateAddressReply{
			Address: req.Address,
			Valid:   s.validator.Valid(req.Address),
			Type:    pkg.AddressType(req.Address),
		}
		if script, err := pkg.ScriptPubKey(req.Address); err == nil {
			reply.ScriptPubKey = script
		}
		ctx.JSON(http.StatusOK, gin.H{
			"code": http.StatusOK,
			"data": reply,
		})
	}
}

// replyView recomputes the dashboard of the selected wallet.
func (s *Server) replyView(ctx *gin.Context, r *wallet.Registry, page, pageSize int, notice string) {
	view, err := s.buildView(ctx, r, page, pageSize)
	if err != nil {
		s.replyError(ctx, http.StatusInternalServerError, err)
		return
	}
	view.Notice = notice
	ctx.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"data": view,
	})
}

// buildView renders the selected wallet of r. When the session expired
// meanwhile, a new one is opened and rendered instead.
func (s *Server) buildView(ctx *gin.Context, r *wallet.Registry, page, pageSize int) (*model.DashboardView, error) {
	wallets, selected, err := snapshot(r)
	if sessionGone(err) {
		if r, err = s.openSession(ctx); err != nil {
			return nil, err
		}
		wallets, selected, err = snapshot(r)
	}
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx.Request.Context(), selected, wallets, page, pageSize), nil
}

func snapshot(r *wallet.Registry) ([]model.Wallet, model.Wallet, error) {
	wallets, err := r.List()
	if err != nil {
		return nil, model.Wallet{}, err
	}
	selected, err := r.Selected()
	if err != nil {
		return nil, model.Wallet{}, err
	}
	return wallets, selected, nil
}

func (s *Server) replyError(ctx *gin.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.logger.Error(ctx.Request.URL.Path, zap.Error(err))
	}
	_ = ctx.Error(err)
	ctx.JSON(code, gin.H{
		"code": code,
		"msg":  err.Error(),
	})
}

func addWallet(r *wallet.Registry, req model.AddWalletRequest) (string, error) {
	created, err := r.Add(req.Name, req.Address)
	if err != nil {
		return "", err
	}
	if created {
		return fmt.Sprintf("Wallet %q added.", strings.TrimSpace(req.Name)), nil
	}
	return fmt.Sprintf("Wallet %q updated.", strings.TrimSpace(req.Name)), nil
}

// errorStatus maps registry errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, wallet.ErrEmptyField), errors.Is(err, wallet.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrUnknownWallet):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrLastWallet):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrSessionExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
