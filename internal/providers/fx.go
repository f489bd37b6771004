package providers

import (
	"github.com/smallbiznis/formpay/internal/providers/email"
	"github.com/smallbiznis/formpay/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
