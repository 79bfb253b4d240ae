package usecase

// Law-enforcement abbreviations and colloquialism mappings used by
// query expansion. Entries are ordered slices, not maps, so expansion
// output is deterministic run to run.

type abbreviation struct {
	Short string
	Full  string
}

var abbreviations = []abbreviation{
	{"OWI", "Operating While Intoxicated"},
	{"OMVWI", "Operating a Motor Vehicle While Intoxicated"},
	{"OAR", "Operating After Revocation"},
	{"OAS", "Operating After Suspension"},
	{"BOLO", "Be On the Lookout"},
	{"EDP", "Emotionally Disturbed Person"},
	{"DV", "Domestic Violence"},
	{"DUI", "Driving Under the Influence"},
	{"BAC", "Blood Alcohol Concentration"},
	{"FTA", "Failure to Appear"},
	{"LESB", "Law Enforcement Standards Board"},
	{"DOJ", "Department of Justice"},
	{"DA", "District Attorney"},
	{"ADA", "Assistant District Attorney"},
	{"OIS", "Officer Involved Shooting"},
	{"SRO", "School Resource Officer"},
	{"K9", "Canine Unit"},
	{"SWAT", "Special Weapons and Tactics"},
	{"FTO", "Field Training Officer"},
	{"MVA", "Motor Vehicle Accident"},
	{"PBT", "Preliminary Breath Test"},
	{"SFSTs", "Standardized Field Sobriety Tests"},
	{"CCW", "Carrying a Concealed Weapon"},
	{"PC", "Probable Cause"},
	{"RS", "Reasonable Suspicion"},
	{"MOU", "Memorandum of Understanding"},
	{"SOP", "Standard Operating Procedure"},
	{"UOF", "Use of Force"},
	{"CIT", "Crisis Intervention Team"},
	{"AODA", "Alcohol and Other Drug Abuse"},
	{"TRO", "Temporary Restraining Order"},
	{"OC", "Oleoresin Capsicum"},
	{"ECD", "Electronic Control Device"},
	{"LEO", "Law Enforcement Officer"},
	{"PAT", "Pre-trial Assessment Tool"},
}

type colloquialism struct {
	Informal string
	Formal   []string
}

var colloquialisms = []colloquialism{
	{"pulled over", []string{"traffic stop", "Terry stop", "investigatory stop"}},
	{"drunk driving", []string{"operating while intoxicated", "OWI", "OMVWI"}},
	{"speeding", []string{"exceeding speed limit", "speed violation"}},
	{"running a red light", []string{"failure to obey traffic signal"}},
	{"hit and run", []string{"duty upon striking", "failure to report accident"}},
	{"road rage", []string{"aggressive driving", "reckless driving"}},
	{"resisting arrest", []string{"resisting or obstructing an officer"}},
	{"shoplifting", []string{"retail theft", "theft"}},
	{"breaking and entering", []string{"burglary", "unlawful entry"}},
	{"assault", []string{"battery", "substantial battery", "aggravated battery"}},
	{"murder", []string{"first degree intentional homicide", "homicide"}},
	{"manslaughter", []string{"second degree reckless homicide", "homicide by negligent operation"}},
	{"drug possession", []string{"possession of controlled substance", "controlled substance"}},
	{"car theft", []string{"operating vehicle without consent", "theft of motor vehicle"}},
	{"trespassing", []string{"criminal trespass", "trespass to land"}},
	{"domestic abuse", []string{"domestic violence", "domestic abuse"}},
	{"restraining order", []string{"temporary restraining order", "TRO", "injunction"}},
	{"bail", []string{"bond", "bail jumping", "conditions of release"}},
	{"jaywalking", []string{"pedestrian violation", "failure to yield"}},
	{"fleeing", []string{"fleeing or eluding an officer", "vehicle pursuit"}},
	{"terry stop", []string{"Terry stop", "investigatory stop", "investigative detention", "reasonable suspicion stop"}},
	{"stop and frisk", []string{"Terry frisk", "protective search", "pat down search"}},
	{"owi", []string{"operating while intoxicated", "OWI", "OMVWI", "drunk driving"}},
	{"field sobriety", []string{"standardized field sobriety test", "SFST", "field sobriety"}},
	{"pat down", []string{"Terry frisk", "protective search"}},
	{"miranda", []string{"Miranda warning", "custodial interrogation rights"}},
	{"search warrant", []string{"search warrant", "warrant execution"}},
	{"no knock", []string{"no-knock warrant", "forced entry warrant"}},
	{"use of force", []string{"use of force", "reasonable force", "deadly force"}},
	{"taser", []string{"electronic control device", "conducted energy weapon"}},
	{"pepper spray", []string{"oleoresin capsicum", "OC spray", "chemical agent"}},
	{"high speed chase", []string{"vehicle pursuit", "fleeing or eluding"}},
	{"dwi", []string{"operating while intoxicated", "OWI"}},
	{"dui", []string{"operating while intoxicated", "OWI"}},
}

type topicChapters struct {
	Topic    string
	Chapters []string
}

// Wisconsin statute chapters by topic, used for boost hints.
var topicToChapters = []topicChapters{
	{"traffic", []string{"346"}},
	{"criminal", []string{"939", "940", "941", "942", "943", "944", "945", "946", "947", "948"}},
	{"homicide", []string{"940"}},
	{"theft", []string{"943"}},
	{"drugs", []string{"961"}},
	{"alcohol", []string{"125", "346"}},
	{"weapons", []string{"941"}},
	{"domestic", []string{"813", "968"}},
	{"juvenile", []string{"938"}},
	{"police powers", []string{"175", "968"}},
	{"terry stop", []string{"968"}},
	{"stop and frisk", []string{"968"}},
	{"use of force", []string{"939"}},
	{"field sobriety", []string{"343", "346"}},
	{"owi", []string{"346"}},
	{"sexual", []string{"940", "944", "948"}},
	{"burglary", []string{"943"}},
	{"fraud", []string{"943"}},
}
