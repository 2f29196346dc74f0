package roster

// Seed returns the demo roster used when no backing data service is
// configured. Mirrors the pilot school's sample records.
func Seed() []Student {
	return []Student{
		{
			ID:            "101",
			Name:          "Ana Silva",
			ClassID:       "3A",
			PhotoURL:      "https://picsum.photos/id/1011/200",
			Status:        StatusInClass,
			LastAccess:    "08:05",
			Birthday:      "2008-05-15",
			GuardianName:  "Maria Silva",
			GuardianPhone: "(11) 91234-5678",
			GuardianEmail: "maria@email.com",
		},
		{
			ID:            "102",
			Name:          "Bruno Santos",
			ClassID:       "3A",
			PhotoURL:      "https://picsum.photos/id/1012/200",
			Status:        StatusInSchool,
			LastAccess:    "07:50",
			Birthday:      "2007-11-20",
			GuardianName:  "José Santos",
			GuardianPhone: "(11) 92345-6789",
			GuardianEmail: "jose@email.com",
		},
		{
			ID:            "103",
			Name:          "Carla Oliveira",
			ClassID:       "2B",
			PhotoURL:      "https://picsum.photos/id/1013/200",
			Status:        StatusAway,
			LastAccess:    "-",
			Birthday:      "2009-03-10",
			GuardianName:  "Roberta Oliveira",
			GuardianPhone: "(11) 93456-7890",
			GuardianEmail: "roberta@email.com",
		},
		{
			ID:            "104",
			Name:          "Diego Lima",
			ClassID:       "3A",
			PhotoURL:      "https://picsum.photos/id/1014/200",
			Status:        StatusInClass,
			LastAccess:    "08:15",
			Birthday:      "2008-01-01",
			GuardianName:  "Carlos Lima",
			GuardianPhone: "(11) 94567-8901",
			GuardianEmail: "carlos@email.com",
		},
	}
}
