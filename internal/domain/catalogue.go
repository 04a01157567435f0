package domain

type Doctor struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Speciality     string   `json:"speciality"`
	Experience     string   `json:"experience"`
	Location       string   `json:"location"`
	Phone          string   `json:"phone"`
	AvailableSlots []string `json:"availableSlots"`
}

type ClinicService struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var doctors = []Doctor{
	{
		ID:             1,
		Name:           "Dr. Sophie Martin",
		Speciality:     "Médecin généraliste",
		Experience:     "15 ans d'expérience",
		Location:       "Aile A, 2ème étage",
		Phone:          "0123456789",
		AvailableSlots: []string{"09:00", "10:00", "11:00", "14:00", "15:00"},
	},
	{
		ID:             2,
		Name:           "Dr. Pierre Dubois",
		Speciality:     "Cardiologue",
		Experience:     "20 ans d'expérience",
		Location:       "Aile B, 3ème étage",
		Phone:          "0123456790",
		AvailableSlots: []string{"09:30", "10:30", "14:30", "15:30"},
	},
	{
		ID:             3,
		Name:           "Dr. Marie Laurent",
		Speciality:     "Pédiatre",
		Experience:     "12 ans d'expérience",
		Location:       "Aile C, 1er étage",
		Phone:          "0123456791",
		AvailableSlots: []string{"09:00", "11:00", "14:00", "16:00"},
	},
}

var services = []ClinicService{
	{Slug: "consultation", Name: "Consultation générale", Description: "Bilan de santé et suivi médical courant."},
	{Slug: "cardiologie", Name: "Cardiologie", Description: "Examens et suivi cardiovasculaires."},
	{Slug: "pediatrie", Name: "Pédiatrie", Description: "Soins des nourrissons, enfants et adolescents."},
	{Slug: "dermatologie", Name: "Dermatologie", Description: "Affections de la peau, des cheveux et des ongles."},
	{Slug: "gynecologie", Name: "Gynécologie", Description: "Santé de la femme et suivi de grossesse."},
	{Slug: "orthopedie", Name: "Orthopédie", Description: "Troubles des os, articulations et muscles."},
	{Slug: "urgences", Name: "Urgences", Description: "Prise en charge sans rendez-vous des cas urgents."},
}

// Doctors returns a copy of the doctor catalogue.
func Doctors() []Doctor {
	out := make([]Doctor, len(doctors))
	for i, d := range doctors {
		d.AvailableSlots = append([]string(nil), d.AvailableSlots...)
		out[i] = d
	}
	return out
}

func Services() []ClinicService {
	return append([]ClinicService(nil), services...)
}
