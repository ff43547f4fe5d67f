package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr  string `default:"" env:"APP_HOST"`
		Port        int    `default:"8080"  env:"APP_PORT"`
		BodyLimit   int    `default:"52428800" env:"APP_BODY_LIMIT"`
		SwaggerPath string `default:"./docs/swagger.json" env:"APP_SWAGGER_PATH"`
		// 5xx notification endpoint, empty disables it
		ErrNotifyAddr string `default:"" env:"APP_ERR_NOTIFY_ADDR"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"org-portal" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Redis struct {
		URL string `default:"redis://127.0.0.1:6379/0" env:"REDIS_URL"`
	}
	QueryCache struct {
		TTLSec int `default:"300" env:"QUERY_CACHE_TTL_SEC"`
	}
	Auth struct {
		JWTSecret             string `default:"change-me" env:"JWT_SECRET"`
		JWTExpireInSec        int    `default:"3600" env:"JWT_EXPIRE_IN_SEC"`
		JWTRefreshExpireInSec int    `default:"2592000" env:"JWT_REFRESH_EXPIRE_IN_SEC"`
	}
	S3 struct {
		Endpoint        string `default:"127.0.0.1:9000" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName      string `default:"attachments" env:"S3_BUCKET_NAME"`
	}
	Smtp struct {
		User       string `default:"" env:"SMTP_USER"`
		Password   string `default:"" env:"SMTP_PASSWORD"`
		Host       string `default:"" env:"SMTP_HOST"`
		Port       string `default:"" env:"SMTP_PORT"`
		TLSEnabled *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
	}
	WhatsApp struct {
		BaseUrl       string `default:"https://graph.facebook.com" env:"WHATSAPP_BASE_URL"`
		APIVersion    string `default:"v19.0" env:"WHATSAPP_API_VERSION"`
		AccessToken   string `default:"" env:"WHATSAPP_ACCESS_TOKEN"`
		PhoneNumberID string `default:"" env:"WHATSAPP_PHONE_NUMBER_ID"`
	}
	Sms struct {
		Url    string `default:"" env:"SMS_URL"`
		ApiKey string `default:"" env:"SMS_API_KEY"`
		Sender string `default:"" env:"SMS_SENDER"`
	}
	Functions struct {
		// functions endpoint used as the fallback path for RPC calls
		BaseUrl    string `default:"http://127.0.0.1:8080/functions/v1" env:"FUNCTIONS_BASE_URL"`
		ServiceKey string `default:"" env:"FUNCTIONS_SERVICE_KEY"`
	}
	Reminder struct {
		Enabled         *bool  `default:"true" env:"REMINDER_ENABLED"`
		IntervalMinutes int    `default:"60" env:"REMINDER_INTERVAL_MINUTES"`
		ThresholdDays   int    `default:"3" env:"REMINDER_THRESHOLD_DAYS"`
		TimeZone        string `default:"Asia/Riyadh" env:"REMINDER_TIMEZONE"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
