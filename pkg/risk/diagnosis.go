package risk

import (
	"strings"
	"unicode"
)

// Diagnosis categories.
const (
	CategorySepsis         = "sepsis"
	CategoryNeuro          = "neuro"
	CategoryCardiac        = "cardiac"
	CategoryPulmonary      = "pulmonary"
	CategoryOncology       = "oncology"
	CategoryOrthopedic     = "orthopedic"
	CategoryTrauma         = "trauma"
	CategoryPostOp         = "post_op"
	CategoryGI             = "gi"
	CategoryRenal          = "renal"
	CategoryEndocrine      = "endocrine"
	CategoryGeneralMedical = "general_medical"
)

type diagnosisRule struct {
	keyword  string
	category string
}

// diagnosisRules is scanned top to bottom and the first hit wins, so a
// diagnosis mentioning both "sepsis" and "pneumonia" is sepsis, and "hip
// fracture" is orthopedic rather than trauma. Keywords padded with spaces only
// match whole words.
var diagnosisRules = []diagnosisRule{
	{"sepsis", CategorySepsis},
	{"septic", CategorySepsis},
	{"bacteremia", CategorySepsis},
	{"urosepsis", CategorySepsis},

	{"stroke", CategoryNeuro},
	{" cva ", CategoryNeuro},
	{"cerebrovascular", CategoryNeuro},
	{" tia ", CategoryNeuro},
	{"intracranial", CategoryNeuro},
	{"subarachnoid", CategoryNeuro},
	{"seizure", CategoryNeuro},
	{"epilep", CategoryNeuro},
	{"parkinson", CategoryNeuro},
	{"multiple sclerosis", CategoryNeuro},
	{"guillain", CategoryNeuro},
	{"encephalopathy", CategoryNeuro},
	{"meningitis", CategoryNeuro},
	{"spinal cord", CategoryNeuro},

	{"myocardial infarction", CategoryCardiac},
	{"nstemi", CategoryCardiac},
	{"stemi", CategoryCardiac},
	{"heart failure", CategoryCardiac},
	{" chf ", CategoryCardiac},
	{"cardiomyopathy", CategoryCardiac},
	{"atrial fibrillation", CategoryCardiac},
	{"arrhythmia", CategoryCardiac},
	{"angina", CategoryCardiac},
	{" cabg ", CategoryCardiac},
	{"endocarditis", CategoryCardiac},

	{"pneumonia", CategoryPulmonary},
	{" copd ", CategoryPulmonary},
	{"asthma", CategoryPulmonary},
	{"pulmonary embolism", CategoryPulmonary},
	{"respiratory failure", CategoryPulmonary},
	{" ards ", CategoryPulmonary},
	{"bronchitis", CategoryPulmonary},
	{"pleural effusion", CategoryPulmonary},
	{"interstitial lung", CategoryPulmonary},
	{"covid", CategoryPulmonary},

	{"cancer", CategoryOncology},
	{"carcinoma", CategoryOncology},
	{"lymphoma", CategoryOncology},
	{"leukemia", CategoryOncology},
	{"myeloma", CategoryOncology},
	{"metasta", CategoryOncology},
	{"tumor", CategoryOncology},
	{"tumour", CategoryOncology},
	{"neoplasm", CategoryOncology},
	{"chemotherapy", CategoryOncology},

	{"hip fracture", CategoryOrthopedic},
	{"femur fracture", CategoryOrthopedic},
	{"femoral neck", CategoryOrthopedic},
	{"arthroplasty", CategoryOrthopedic},
	{"joint replacement", CategoryOrthopedic},
	{"hip replacement", CategoryOrthopedic},
	{"knee replacement", CategoryOrthopedic},
	{"laminectomy", CategoryOrthopedic},
	{"spinal fusion", CategoryOrthopedic},

	{"trauma", CategoryTrauma},
	{"fracture", CategoryTrauma},
	{"motor vehicle", CategoryTrauma},
	{" mvc ", CategoryTrauma},
	{"fall with injury", CategoryTrauma},
	{"contusion", CategoryTrauma},
	{"gunshot", CategoryTrauma},

	{"postoperative", CategoryPostOp},
	{"post-op", CategoryPostOp},
	{" s/p ", CategoryPostOp},
	{"appendectomy", CategoryPostOp},
	{"cholecystectomy", CategoryPostOp},
	{"colectomy", CategoryPostOp},
	{"laparotomy", CategoryPostOp},
	{"bowel resection", CategoryPostOp},
	{"hernia repair", CategoryPostOp},
	{"surgery", CategoryPostOp},
	{"surgical", CategoryPostOp},

	{"gi bleed", CategoryGI},
	{"gastrointestinal", CategoryGI},
	{"pancreatitis", CategoryGI},
	{"cirrhosis", CategoryGI},
	{"bowel obstruction", CategoryGI},
	{"colitis", CategoryGI},
	{"diverticulitis", CategoryGI},
	{"hepatitis", CategoryGI},
	{"liver failure", CategoryGI},

	{"acute kidney injury", CategoryRenal},
	{" aki ", CategoryRenal},
	{" ckd ", CategoryRenal},
	{"renal failure", CategoryRenal},
	{"kidney", CategoryRenal},
	{"pyelonephritis", CategoryRenal},
	{"dialysis", CategoryRenal},
	{" uti ", CategoryRenal},
	{"urinary tract infection", CategoryRenal},

	{"diabetic ketoacidosis", CategoryEndocrine},
	{" dka ", CategoryEndocrine},
	{"hyperglycemia", CategoryEndocrine},
	{"hypoglycemia", CategoryEndocrine},
	{"thyroid", CategoryEndocrine},
	{"adrenal", CategoryEndocrine},
	{"hyponatremia", CategoryEndocrine},
	{"diabetes", CategoryEndocrine},
}

// Categorize maps free-text admission diagnosis onto a category.
func Categorize(diagnosis string) string {
	text := padWords(diagnosis)
	for _, rule := range diagnosisRules {
		if strings.Contains(text, rule.keyword) {
			return rule.category
		}
	}
	return CategoryGeneralMedical
}

// padWords lowercases, replaces punctuation other than '/' and '-' with
// spaces and pads both ends so whole-word keywords can match at the edges.
func padWords(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '-' {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return " " + mapped + " "
}
