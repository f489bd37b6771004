package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ReceiptConfig controls how payment receipts are presented.
type ReceiptConfig struct {
	SenderName   string `mapstructure:"senderName"`
	SupportEmail string `mapstructure:"supportEmail"`
	AttachPDF    bool   `mapstructure:"attachPdf"`
	FooterNote   string `mapstructure:"footerNote"`
}

func DefaultReceiptConfig() ReceiptConfig {
	return ReceiptConfig{
		SenderName: "Formpay",
		AttachPDF:  false,
		FooterNote: "Thank you for your payment.",
	}
}

type ReceiptConfigHolder struct {
	current atomic.Value // holds ReceiptConfig
}

// NewStaticReceiptConfigHolder returns a holder that never reloads.
func NewStaticReceiptConfigHolder(cfg ReceiptConfig) *ReceiptConfigHolder {
	holder := &ReceiptConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewReceiptConfigHolder() (*ReceiptConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("receipt")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/formpay")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FORMPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultReceiptConfig()
	v.SetDefault("receipt.senderName", defaults.SenderName)
	v.SetDefault("receipt.attachPdf", defaults.AttachPDF)
	v.SetDefault("receipt.footerNote", defaults.FooterNote)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg ReceiptConfig
	if err := v.UnmarshalKey("receipt", &cfg); err != nil {
		return nil, err
	}
	if err := validateReceiptConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticReceiptConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReceiptConfig
		if err := v.UnmarshalKey("receipt", &updated); err != nil {
			log.Printf("[receipt-config] reload failed: %v", err)
			return
		}
		if err := validateReceiptConfig(updated); err != nil {
			log.Printf("[receipt-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[receipt-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ReceiptConfigHolder) Get() ReceiptConfig {
	if h == nil {
		return DefaultReceiptConfig()
	}
	return h.current.Load().(ReceiptConfig)
}

func validateReceiptConfig(cfg ReceiptConfig) error {
	if strings.TrimSpace(cfg.SenderName) == "" {
		return errors.New("receipt.senderName cannot be empty")
	}
	return nil
}
