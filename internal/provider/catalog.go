package provider

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
)

const (
	NameAlphaSMS  = "alphasms"
	NameBulkSMSBD = "bulksmsbd"
	NameDhorola   = "dhorola"
	NameESMS      = "esms"
	NameMiMSMS    = "mimsms"
	NameReveSMS   = "revesms"
	NameTwilio    = "twilio"
	NameNexmo     = "nexmo"
	NameLog       = "log"
	NameArray     = "array"
)

type constructor func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error)

var constructors = map[string]constructor{
	NameAlphaSMS: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewAlphaSMS(cfg, client, hooks))
	},
	NameBulkSMSBD: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewBulkSMSBD(cfg, client, hooks))
	},
	NameDhorola: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewDhorola(cfg, client, hooks))
	},
	NameESMS: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewESMS(cfg, client, hooks))
	},
	NameMiMSMS: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewMiMSMS(cfg, client, hooks))
	},
	NameReveSMS: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewReveSMS(cfg, client, hooks))
	},
	NameTwilio: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewTwilio(cfg, client, hooks))
	},
	NameNexmo: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewNexmo(cfg, client, hooks))
	},
	NameLog: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewLog(cfg, client, hooks))
	},
	NameArray: func(cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
		return asProvider(NewArray(cfg, client, hooks))
	},
}

var (
	_ Provider = (*AlphaSMS)(nil)
	_ Provider = (*BulkSMSBD)(nil)
	_ Provider = (*Dhorola)(nil)
	_ Provider = (*ESMS)(nil)
	_ Provider = (*MiMSMS)(nil)
	_ Provider = (*ReveSMS)(nil)
	_ Provider = (*Twilio)(nil)
	_ Provider = (*Nexmo)(nil)
	_ Provider = (*Log)(nil)
	_ Provider = (*Array)(nil)
)

// New builds the built-in adapter registered under name. A nil client gives
// each adapter its own resty client configured from cfg.
func New(name string, cfg Config, client *resty.Client, hooks Hooks) (Provider, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: textify provider %q not found", domain.ErrProviderNotFound, name)
	}
	return ctor(cfg, client, hooks)
}

// Names lists the built-in adapters in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func asProvider[P Provider](p P, err error) (Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
