// Package catalog is the static data provider standing in for the school's
// backoffice service: classrooms, class and teacher records, physical
// rooms, the day's menu and the dashboard series. A networked provider can
// replace Static behind the same interface.
package catalog

// Classroom is a teaching room bound to a class section.
type Classroom struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	TeacherID string `json:"teacherId"`
	Subject   string `json:"subject"`
}

// ClassRecord is an administrative class (turma) entry.
type ClassRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Grade    string `json:"grade"`
	Shift    string `json:"shift"`
	Students int    `json:"students"`
	Room     string `json:"room"`
}

// TeacherRecord is an administrative teacher entry.
type TeacherRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Hours   string `json:"hours"`
	Classes int    `json:"classes"`
	Status  string `json:"status"` // Ativo / Em Licença
}

// RoomRecord is a physical room entry.
type RoomRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"` // Disponível / Em Uso / Manutenção
}

// MenuDay is the cafeteria menu of the day.
type MenuDay struct {
	Day      string `json:"day"`
	MainDish string `json:"mainDish"`
	Side     string `json:"side"`
	Dessert  string `json:"dessert"`
}

// AttendancePoint is one bar of the weekly frequency chart.
type AttendancePoint struct {
	Day      string `json:"day"`
	Present  int    `json:"present"`
	Absences int    `json:"absences"`
}

// Provider is the data-provider contract: return the current collection.
type Provider interface {
	Classrooms() []Classroom
	Classes() []ClassRecord
	Teachers() []TeacherRecord
	Rooms() []RoomRecord
	Menu() MenuDay
	WeeklyAttendance() []AttendancePoint
}

// Static serves the built-in demo dataset.
type Static struct{}

func (Static) Classrooms() []Classroom {
	return []Classroom{
		{ID: "3A", Name: "Sala 301 - Bloco A", Capacity: 35, TeacherID: "prof1", Subject: "Matemática"},
		{ID: "2B", Name: "Laboratório de Física", Capacity: 20, TeacherID: "prof2", Subject: "Física"},
		{ID: "1C", Name: "Sala 105 - Bloco B", Capacity: 40, TeacherID: "prof3", Subject: "História"},
	}
}

func (Static) Classes() []ClassRecord {
	return []ClassRecord{
		{ID: "1", Name: "3º Ano A", Grade: "3º Ensino Médio", Shift: "Matutino", Students: 35, Room: "Sala 301"},
		{ID: "2", Name: "2º Ano B", Grade: "2º Ensino Médio", Shift: "Vespertino", Students: 28, Room: "Sala 205"},
		{ID: "3", Name: "1º Ano C", Grade: "1º Ensino Médio", Shift: "Matutino", Students: 40, Room: "Laboratório A"},
	}
}

func (Static) Teachers() []TeacherRecord {
	return []TeacherRecord{
		{ID: "prof1", Name: "Ricardo Mendes", Subject: "Matemática", Hours: "40h", Classes: 4, Status: "Ativo"},
		{ID: "prof2", Name: "Lúcia Ferreira", Subject: "História", Hours: "20h", Classes: 3, Status: "Ativo"},
		{ID: "prof3", Name: "Marcos Silva", Subject: "Física", Hours: "30h", Classes: 5, Status: "Em Licença"},
	}
}

func (Static) Rooms() []RoomRecord {
	return []RoomRecord{
		{ID: "301", Name: "Sala 301 - Bloco A", Type: "Teórica", Capacity: 40, Status: "Disponível"},
		{ID: "LAB1", Name: "Laboratório de Química", Type: "Prática", Capacity: 20, Status: "Em Uso"},
		{ID: "AUD", Name: "Auditório Principal", Type: "Eventos", Capacity: 200, Status: "Disponível"},
		{ID: "BIB", Name: "Biblioteca", Type: "Estudo", Capacity: 50, Status: "Manutenção"},
	}
}

func (Static) Menu() MenuDay {
	return MenuDay{
		Day:      "Segunda-feira",
		MainDish: "Arroz com Feijão e Frango Grelhado",
		Side:     "Salada de Alface e Tomate",
		Dessert:  "Maçã",
	}
}

func (Static) WeeklyAttendance() []AttendancePoint {
	return []AttendancePoint{
		{Day: "Seg", Present: 450, Absences: 30},
		{Day: "Ter", Present: 462, Absences: 18},
		{Day: "Qua", Present: 440, Absences: 40},
		{Day: "Qui", Present: 458, Absences: 22},
		{Day: "Sex", Present: 455, Absences: 25},
	}
}
