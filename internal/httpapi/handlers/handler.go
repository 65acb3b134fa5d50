package handlers

import (
	"terrastore/internal/config"
	"terrastore/internal/extauth"
	"terrastore/internal/service"
	"terrastore/internal/staging"
)

type Handler struct {
	cfg     config.Config
	svc     *service.Service
	ldap    *extauth.LDAPAuthenticator // nil when LDAP is disabled
	staging *staging.Dir
}

func New(cfg config.Config, svc *service.Service, ldapAuth *extauth.LDAPAuthenticator, stagingDir *staging.Dir) *Handler {
	return &Handler{
		cfg:     cfg,
		svc:     svc,
		ldap:    ldapAuth,
		staging: stagingDir,
	}
}
