package core

// genderByToken maps normalized gender text to the stored enumeration.
var genderByToken = map[string]Gender{
	"m":             GenderMale,
	"masc":          GenderMale,
	"masculino":     GenderMale,
	"homem":         GenderMale,
	"male":          GenderMale,
	"f":             GenderFemale,
	"fem":           GenderFemale,
	"feminino":      GenderFemale,
	"mulher":        GenderFemale,
	"female":        GenderFemale,
	"o":             GenderOther,
	"outro":         GenderOther,
	"outros":        GenderOther,
	"naobinario":    GenderOther,
	"nao_binario":   GenderOther,
	"other":         GenderOther,
	"nao_informado": GenderNotInformed,
	"naoinformado":  GenderNotInformed,
}

// educationByToken maps normalized schooling text to the stored enumeration.
var educationByToken = map[string]Education{
	"fundamental_incompleto":      EducationElementaryIncomplete,
	"fundamentalincompleto":       EducationElementaryIncomplete,
	"ensinofundamentalincompleto": EducationElementaryIncomplete,
	"fundamental_completo":        EducationElementary,
	"fundamentalcompleto":         EducationElementary,
	"fundamental":                 EducationElementary,
	"ensinofundamental":           EducationElementary,
	"ensinofundamentalcompleto":   EducationElementary,
	"medio_incompleto":            EducationHighSchoolIncomplete,
	"medioincompleto":             EducationHighSchoolIncomplete,
	"ensinomedioincompleto":       EducationHighSchoolIncomplete,
	"medio_completo":              EducationHighSchool,
	"mediocompleto":               EducationHighSchool,
	"medio":                       EducationHighSchool,
	"ensinomedio":                 EducationHighSchool,
	"ensinomediocompleto":         EducationHighSchool,
	"superior_incompleto":         EducationCollegeIncomplete,
	"superiorincompleto":          EducationCollegeIncomplete,
	"ensinosuperiorincompleto":    EducationCollegeIncomplete,
	"superior_completo":           EducationCollege,
	"superiorcompleto":            EducationCollege,
	"superior":                    EducationCollege,
	"ensinosuperior":              EducationCollege,
	"ensinosuperiorcompleto":      EducationCollege,
	"graduacao":                   EducationCollege,
	"pos_graduacao":               EducationPostgraduate,
	"posgraduacao":                EducationPostgraduate,
	"pos":                         EducationPostgraduate,
	"especializacao":              EducationPostgraduate,
	"mestrado":                    EducationPostgraduate,
	"doutorado":                   EducationPostgraduate,
	"nao_informado":               EducationNotInformed,
	"naoinformado":                EducationNotInformed,
}

// ParseGender maps free text to a Gender. Unknown or empty text yields
// GenderNotInformed.
func ParseGender(s string) Gender {
	if g, ok := genderByToken[Normalize(s)]; ok {
		return g
	}
	return GenderNotInformed
}

// ParseEducation maps free text to an Education level. Unknown or empty
// text yields EducationNotInformed.
func ParseEducation(s string) Education {
	if e, ok := educationByToken[Normalize(s)]; ok {
		return e
	}
	return EducationNotInformed
}
