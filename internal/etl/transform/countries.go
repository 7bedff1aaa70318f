package transform

// builtinContinents maps country names to continents. Lookups are
// case-insensitive.
var builtinContinents = map[string]string{
	// Asia
	"Afghanistan":                           "Asia",
	"Armenia":                               "Asia",
	"Azerbaijan":                            "Asia",
	"Bahrain":                               "Asia",
	"Bangladesh":                            "Asia",
	"Bhutan":                                "Asia",
	"Brunei Darussalam":                     "Asia",
	"Cambodia":                              "Asia",
	"China":                                 "Asia",
	"Cyprus":                                "Asia",
	"Georgia":                               "Asia",
	"Hong Kong":                             "Asia",
	"India":                                 "Asia",
	"Indonesia":                             "Asia",
	"Iran":                                  "Asia",
	"Iraq":                                  "Asia",
	"Israel":                                "Asia",
	"Japan":                                 "Asia",
	"Jordan":                                "Asia",
	"Kazakhstan":                            "Asia",
	"Kuwait":                                "Asia",
	"Kyrgyz Republic":                       "Asia",
	"Lao People's Democratic Republic":      "Asia",
	"Lebanon":                               "Asia",
	"Macao":                                 "Asia",
	"Malaysia":                              "Asia",
	"Maldives":                              "Asia",
	"Mongolia":                              "Asia",
	"Myanmar":                               "Asia",
	"Nepal":                                 "Asia",
	"Democratic People's Republic of Korea": "Asia",
	"Oman":                                  "Asia",
	"Pakistan":                              "Asia",
	"Palestine":                             "Asia",
	"Philippines":                           "Asia",
	"Qatar":                                 "Asia",
	"Republic of Korea":                     "Asia",
	"Russian Federation":                    "Asia",
	"Saudi Arabia":                          "Asia",
	"Singapore":                             "Asia",
	"Sri Lanka":                             "Asia",
	"Syrian Arab Republic":                  "Asia",
	"Taiwan":                                "Asia",
	"Tajikistan":                            "Asia",
	"Thailand":                              "Asia",
	"Timor-Leste":                           "Asia",
	"Turkey":                                "Asia",
	"Turkmenistan":                          "Asia",
	"United Arab Emirates":                  "Asia",
	"Uzbekistan":                            "Asia",
	"Vietnam":                               "Asia",
	"Yemen":                                 "Asia",

	// Europe
	"Aland Islands":                 "Europe",
	"Albania":                       "Europe",
	"Andorra":                       "Europe",
	"Austria":                       "Europe",
	"Belarus":                       "Europe",
	"Belgium":                       "Europe",
	"Bosnia and Herzegovina":        "Europe",
	"Bulgaria":                      "Europe",
	"Croatia":                       "Europe",
	"Czechia":                       "Europe",
	"Denmark":                       "Europe",
	"Estonia":                       "Europe",
	"Faroe Islands":                 "Europe",
	"Finland":                       "Europe",
	"France":                        "Europe",
	"Germany":                       "Europe",
	"Gibraltar":                     "Europe",
	"Greece":                        "Europe",
	"Guernsey":                      "Europe",
	"Holy See (Vatican City State)": "Europe",
	"Hungary":                       "Europe",
	"Iceland":                       "Europe",
	"Ireland":                       "Europe",
	"Isle of Man":                   "Europe",
	"Italy":                         "Europe",
	"Jersey":                        "Europe",
	"Latvia":                        "Europe",
	"Liechtenstein":                 "Europe",
	"Lithuania":                     "Europe",
	"Luxembourg":                    "Europe",
	"Malta":                         "Europe",
	"Moldova":                       "Europe",
	"Monaco":                        "Europe",
	"Montenegro":                    "Europe",
	"Netherlands":                   "Europe",
	"North Macedonia":               "Europe",
	"Norway":                        "Europe",
	"Poland":                        "Europe",
	"Portugal":                      "Europe",
	"Romania":                       "Europe",
	"San Marino":                    "Europe",
	"Serbia":                        "Europe",
	"Slovakia":                      "Europe",
	"Slovenia":                      "Europe",
	"Spain":                         "Europe",
	"Svalbard & Jan Mayen Islands":  "Europe",
	"Sweden":                        "Europe",
	"Switzerland":                   "Europe",
	"Ukraine":                       "Europe",
	"United Kingdom":                "Europe",

	// North America
	"Anguilla":                         "North America",
	"Antigua and Barbuda":              "North America",
	"Aruba":                            "North America",
	"Bahamas":                          "North America",
	"Barbados":                         "North America",
	"Belize":                           "North America",
	"Bermuda":                          "North America",
	"Bonaire, Sint Eustatius and Saba": "North America",
	"Canada":                           "North America",
	"Cayman Islands":                   "North America",
	"Costa Rica":                       "North America",
	"Cuba":                             "North America",
	"Curacao":                          "North America",
	"Dominica":                         "North America",
	"Dominican Republic":               "North America",
	"El Salvador":                      "North America",
	"Greenland":                        "North America",
	"Grenada":                          "North America",
	"Guadeloupe":                       "North America",
	"Guatemala":                        "North America",
	"Haiti":                            "North America",
	"Honduras":                         "North America",
	"Jamaica":                          "North America",
	"Martinique":                       "North America",
	"Mexico":                           "North America",
	"Montserrat":                       "North America",
	"Nicaragua":                        "North America",
	"Panama":                           "North America",
	"Puerto Rico":                      "North America",
	"Saint Barthelemy":                 "North America",
	"Saint Kitts and Nevis":            "North America",
	"Saint Lucia":                      "North America",
	"Saint Martin":                     "North America",
	"Saint Pierre and Miquelon":        "North America",
	"Saint Vincent and the Grenadines": "North America",
	"Sint Maarten":                     "North America",
	"Trinidad and Tobago":              "North America",
	"Turks and Caicos Islands":         "North America",
	"United States":                    "North America",
	"United States of America":         "North America",
	"Virgin Islands, U.S.":             "North America",
	"Virgin Islands, British":          "North America",

	// South America
	"Argentina":                   "South America",
	"Bolivia":                     "South America",
	"Brazil":                      "South America",
	"Chile":                       "South America",
	"Colombia":                    "South America",
	"Ecuador":                     "South America",
	"Falkland Islands (Malvinas)": "South America",
	"French Guiana":               "South America",
	"Guyana":                      "South America",
	"Paraguay":                    "South America",
	"Peru":                        "South America",
	"Suriname":                    "South America",
	"Uruguay":                     "South America",
	"Venezuela":                   "South America",

	// Africa
	"Algeria":                          "Africa",
	"Angola":                           "Africa",
	"Benin":                            "Africa",
	"Botswana":                         "Africa",
	"Burkina Faso":                     "Africa",
	"Burundi":                          "Africa",
	"Cameroon":                         "Africa",
	"Cape Verde":                       "Africa",
	"Central African Republic":         "Africa",
	"Chad":                             "Africa",
	"Comoros":                          "Africa",
	"Congo":                            "Africa",
	"Democratic Republic of the Congo": "Africa",
	"Cote d'Ivoire":                    "Africa",
	"Djibouti":                         "Africa",
	"Egypt":                            "Africa",
	"Equatorial Guinea":                "Africa",
	"Eritrea":                          "Africa",
	"Eswatini":                         "Africa",
	"Ethiopia":                         "Africa",
	"Gabon":                            "Africa",
	"Gambia":                           "Africa",
	"Ghana":                            "Africa",
	"Guinea":                           "Africa",
	"Guinea-Bissau":                    "Africa",
	"Kenya":                            "Africa",
	"Lesotho":                          "Africa",
	"Liberia":                          "Africa",
	"Libyan Arab Jamahiriya":           "Africa",
	"Madagascar":                       "Africa",
	"Malawi":                           "Africa",
	"Mali":                             "Africa",
	"Mauritania":                       "Africa",
	"Mauritius":                        "Africa",
	"Mayotte":                          "Africa",
	"Morocco":                          "Africa",
	"Mozambique":                       "Africa",
	"Namibia":                          "Africa",
	"Niger":                            "Africa",
	"Nigeria":                          "Africa",
	"Reunion":                          "Africa",
	"Rwanda":                           "Africa",
	"Saint Helena":                     "Africa",
	"Sao Tome and Principe":            "Africa",
	"Senegal":                          "Africa",
	"Seychelles":                       "Africa",
	"Sierra Leone":                     "Africa",
	"Somalia":                          "Africa",
	"South Africa":                     "Africa",
	"South Sudan":                      "Africa",
	"Sudan":                            "Africa",
	"Tanzania":                         "Africa",
	"Togo":                             "Africa",
	"Tunisia":                          "Africa",
	"Uganda":                           "Africa",
	"Western Sahara":                   "Africa",
	"Zambia":                           "Africa",
	"Zimbabwe":                         "Africa",

	// Oceania
	"American Samoa":                       "Oceania",
	"Australia":                            "Oceania",
	"Christmas Island":                     "Oceania",
	"Cocos (Keeling) Islands":              "Oceania",
	"Cook Islands":                         "Oceania",
	"Fiji":                                 "Oceania",
	"French Polynesia":                     "Oceania",
	"Guam":                                 "Oceania",
	"Kiribati":                             "Oceania",
	"Marshall Islands":                     "Oceania",
	"Micronesia":                           "Oceania",
	"Nauru":                                "Oceania",
	"New Caledonia":                        "Oceania",
	"New Zealand":                          "Oceania",
	"Niue":                                 "Oceania",
	"Norfolk Island":                       "Oceania",
	"Northern Mariana Islands":             "Oceania",
	"Palau":                                "Oceania",
	"Papua New Guinea":                     "Oceania",
	"Pitcairn Islands":                     "Oceania",
	"Samoa":                                "Oceania",
	"Solomon Islands":                      "Oceania",
	"Tokelau":                              "Oceania",
	"Tonga":                                "Oceania",
	"Tuvalu":                               "Oceania",
	"United States Minor Outlying Islands": "Oceania",
	"Vanuatu":                              "Oceania",
	"Wallis and Futuna":                    "Oceania",

	// Antarctica
	"Antarctica":                                   "Antarctica",
	"Bouvet Island":                                "Antarctica",
	"French Southern Territories":                  "Antarctica",
	"Heard Island and McDonald Islands":            "Antarctica",
	"South Georgia and the South Sandwich Islands": "Antarctica",

	// Other
	"Unknown": "Other",
}
