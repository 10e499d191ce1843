package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/PizzaHomicide/kasumi/internal/config"
	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/service"
	"github.com/PizzaHomicide/kasumi/internal/ui/tui/models"
)

func Run(cfg *config.Config, sessions domain.SessionManager, discovery *service.DiscoveryService) error {
	p := tea.NewProgram(models.NewAppModel(cfg, sessions, discovery), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
