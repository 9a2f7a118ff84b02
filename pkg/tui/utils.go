package tui

import (
	"zondwallet/pkg/models"
	"zondwallet/pkg/utils"
)

func (m model) displayBalance(acc models.Account) string {
	if m.privacyMode {
		return "****"
	}
	return acc.Balance
}

func (m model) maskAddress(addr string) string {
	if m.privacyMode {
		return utils.ShortAddress(addr)
	}
	return addr
}

func (m model) maskFloat(f float64) string {
	if m.privacyMode {
		return "****"
	}
	return utils.FormatFloat(f, 4)
}
