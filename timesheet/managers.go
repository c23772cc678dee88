package timesheet

import "fmt"

// Manager oversees one or more núcleos.
type Manager struct {
	Name  string   `json:"name"`
	Units []string `json:"nucleos"`
}

// Managers is the firm's manager → núcleo map used to scope reviews.
var Managers = []Manager{
	{Name: "Bruno Gobbi", Units: []string{"Administrativo"}},
	{Name: "Rafael Leonardo Borg", Units: []string{"Seguros", "Consultivo Securitário"}},
	{Name: "Rafael Vieira Vianna Santos", Units: []string{"Contencioso"}},
	{Name: "Maria Eduarda Kormann", Units: []string{"Contratos"}},
	{Name: "Caroline Hoffmann", Units: []string{"Controladoria"}},
}

// FindManager looks a manager up by canonical name.
func FindManager(name string) (Manager, error) {
	want := Canonicalize(name)
	for _, m := range Managers {
		if Canonicalize(m.Name) == want {
			return m, nil
		}
	}
	return Manager{}, fmt.Errorf("%w: manager %s", ErrPersonNotFound, name)
}

// ScopeToManager is FilterByUnits over the manager's núcleos.
func ScopeToManager(m MonthRecord, mgr Manager) MonthRecord {
	return FilterByUnits(m, mgr.Units)
}
