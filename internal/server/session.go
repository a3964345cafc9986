package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wx-shi/utxo-dashboard/internal/wallet"
	"go.uber.org/zap"
)

const registryKey = "registry"

// sessionMiddleware attaches the caller's wallet registry, opening a new
// session when the cookie is missing, expired, or points at a registry
// whose keys were already dropped.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, _ := ctx.Cookie(s.conf.Session.CookieName)
		r, ok := s.sessions.Get(id)
		if ok && !usable(r) {
			s.logger.Debug("StaleSession", zap.String("session", id))
			s.sessions.Delete(id)
			ok = false
		}
		if !ok {
			var err error
			if r, err = s.openSession(ctx); err != nil {
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code": http.StatusInternalServerError,
					"msg":  err.Error(),
				})
				return
			}
		}
		ctx.Set(registryKey, r)
		ctx.Next()
	}
}

// openSession creates a session, sets its cookie and attaches it to ctx.
func (s *Server) openSession(ctx *gin.Context) (*wallet.Registry, error) {
	r, err := s.sessions.Create()
	if err != nil {
		s.logger.Error("CreateSession", zap.Error(err))
		return nil, err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(s.conf.Session.CookieName, r.ID(), int(s.conf.Session.TTL.Seconds()),
		"/", "", s.conf.Session.Secure, true)
	ctx.Set(registryKey, r)
	return r, nil
}

// usable is false for a registry that expired or lost its wallets.
func usable(r *wallet.Registry) bool {
	_, err := r.Selected()
	return !sessionGone(err)
}

func sessionGone(err error) bool {
	return errors.Is(err, wallet.ErrSessionExpired) || errors.Is(err, wallet.ErrUnknownWallet)
}

func registry(ctx *gin.Context) *wallet.Registry {
	return ctx.MustGet(registryKey).(*wallet.Registry)
}
