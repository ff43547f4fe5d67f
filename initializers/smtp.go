package initializers

import (
	"org-portal-backend/config"
	smsclient "org-portal-backend/lib/sms"
	"org-portal-backend/lib/smtp"
	whatsappclient "org-portal-backend/lib/whatsapp/client"
)

// InitMessaging prepares the notification delivery channels. Unconfigured
// channels stay usable and fail every send with ErrNotConfigured
func InitMessaging() {
	err := smtp.Connect(config.Conf.Smtp.User, config.Conf.Smtp.Password,
		config.Conf.Smtp.Host, config.Conf.Smtp.Port, *config.Conf.Smtp.TLSEnabled)
	if err != nil {
		panic(err.Error())
	}
	whatsappclient.Connect()
	smsclient.Connect()
}
