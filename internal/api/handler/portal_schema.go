package handler

import (
	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/portal"
)

type loginRequest struct {
	Phone string `json:"phone" validate:"required,max=32"`
	Pin   string `json:"pin"   validate:"required,len=4,numeric"`
}

type resetRequest struct {
	Phone string `json:"phone" validate:"required,max=32"`
}

type pinRequest struct {
	Pin        string `json:"pin"         validate:"required,len=4,numeric"`
	ConfirmPin string `json:"confirm_pin" validate:"required,len=4,numeric"`
}

type notificationRequest struct {
	Token string `json:"token" validate:"required,max=4096"`
}

type viewResponse struct {
	View portal.View `json:"view"`
}

type pauseRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason"     validate:"required,oneof=Travel Medical Work Other"`
}

type pauseOverviewResponse struct {
	Status           domain.PauseStatus `json:"status"`
	Restricted       bool               `json:"restricted"`
	DaysToExpiration int                `json:"days_to_expiration"`
	Reasons          []string           `json:"reasons"`
}

type pauseRequestResponse struct {
	Status  domain.PauseStatus `json:"status"`
	Message string             `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string       `json:"error"`
	View  *portal.View `json:"view,omitempty"`
}
