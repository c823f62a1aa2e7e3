package jd

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) has(w string) bool {
	_, ok := s[w]
	return ok
}

var educationKeywords = []string{
	"b.tech", "bachelor", "degree", "computer science",
	"engineering", "master", "phd", "diploma",
}

// noiseWords are phrases that show up as nouns in postings but never name a skill.
var noiseWords = newWordSet(
	"ex", "co", "experience", "ability", "skills", "team", "environment",
	"ownership", "issues", "tasks", "projects", "improvements", "reporting",
	"efficiency", "reliability", "performance", "development", "processing",
	"process", "services", "systems", "features", "design", "models",
	"environments", "code", "science", "compute", "assist", "transform",
	"develop", "engineer", "engineering", "workflows", "pipelines", "-",
	"a plus", "proficiency", "data", "engine", "plus", "role", "field", "monitor",
	"this role", "a related field", "comfort", "technologies", "responsibilities", "members",
	"requirements", "trends", "details", "stakeholders", "analysts",
	"scientists", "engineers", "basics", "tools", "platforms",
	// posting boilerplate
	"hours", "distance", "workplace", "support", "accommodation", "application",
	"interview", "hiring", "onboarding", "commutable", "you", "your", "our", "we",
	"they", "their", "this", "that", "these", "those", "work", "job", "position",
	"candidate", "applicant", "employee", "employer", "company", "organization",
	"business", "industry", "sector", "market", "time", "day", "week", "month",
	"year", "schedule", "shift", "flexible", "full", "part", "remote", "hybrid",
	"office", "location", "site", "facility", "benefits", "salary", "compensation",
	"pay", "wage", "bonus", "equity", "health", "insurance", "dental", "vision",
	"retirement", "vacation", "pto", "culture", "values", "mission",
	"goals", "objectives", "opportunity", "opportunities", "career", "growth",
	"advancement", "https", "http", "www", "com", "org", "net", "jobs", "content",
	"hire", "accommodations", "eap", "connections", "peers", "jr", "program",
	"intern", "internship", "entry", "junior", "senior", "lead", "manager",
	"director", "vp", "ceo", "cto", "cfo", "president", "founder",
	"usa", "us", "america", "states", "country", "nation", "city", "state",
	"person", "people", "individual", "individuals", "someone", "anyone",
	"everyone", "everything", "something", "anything", "nothing", "thing", "things",
	"way", "ways", "manner", "method", "approach", "strategy", "plan", "planning",
	"level", "levels", "type", "types", "kind", "kinds", "sort", "sorts",
	"area", "areas", "aspect", "aspects", "parts", "section", "sections",
	"place", "places", "space", "spaces", "room", "rooms", "building", "buildings",
	"software", "hardware", "computer", "language", "stem", "results", "mental",
	"round", "line", "corporate", "amazon", "an amazon", "an amazon corporate site",
)

var commonWords = newWordSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
	"will", "would", "should", "could", "may", "might", "must", "can", "shall",
	"work", "time", "good", "great", "best", "new", "old", "big", "small", "high", "low",
	"fast", "slow", "easy", "hard", "long", "short", "strong", "weak", "right", "wrong",
	"basic", "advanced", "simple", "complex", "general", "specific", "main", "key",
	"important", "necessary", "required", "preferred", "ideal", "perfect", "excellent",
	"line", "round", "site", "mental", "results", "stem", "language", "computer",
	"software", "hardware", "engineering", "engineer", "science", "technology",
	"technical", "system", "systems", "application", "applications", "solution", "solutions",
)

var urlMarkers = []string{"http", "www", ".com", ".org", "@", "jobs/", "amazon.jobs"}

var commonCities = newWordSet(
	"seattle", "bellevue", "redmond", "portland", "san francisco", "new york",
	"boston", "austin", "chicago", "denver", "atlanta", "los angeles", "miami",
	"dallas", "houston", "phoenix", "philadelphia", "san diego", "san jose",
)

var jobTerms = newWordSet(
	"intern", "internship", "college", "university", "student", "graduate",
	"june", "july", "august", "september", "october", "november", "december",
	"january", "february", "march", "april", "may", "monday", "tuesday",
	"wednesday", "thursday", "friday", "saturday", "sunday", "usa", "us",
	"opportunities", "opportunity", "onboarding", "master", "bachelor", "degree",
)

// strongTechTerms are accepted outright.
var strongTechTerms = newWordSet(
	// languages
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby", "go", "rust",
	"swift", "kotlin", "scala", "r", "matlab", "perl", "php", "vhdl", "verilog",
	// frameworks and libraries
	"react", "angular", "vue", "django", "flask", "spring", "spring boot", "express",
	"node.js", "nodejs", "node", "tensorflow", "pytorch", "keras", "scikit-learn",
	"pandas", "numpy", "scipy",
	// databases
	"sql", "mysql", "postgresql", "postgres", "mongodb", "redis", "oracle", "cassandra",
	"dynamodb", "mariadb", "elasticsearch", "elastic",
	// cloud and devops
	"aws", "azure", "gcp", "docker", "kubernetes", "k8s", "jenkins", "terraform", "ansible",
	// engineering tools
	"autocad", "solidworks", "catia", "ansys", "simulink", "labview",
	"spice", "cadence", "altium", "eagle", "kicad", "ltspice", "pspice",
	"revit", "sketchup", "rhino", "inventor", "creo", "nx", "pro/engineer",
	// methodologies
	"agile", "scrum", "kanban", "lean", "six sigma", "waterfall", "devops",
	// certifications
	"pmp", "cissp", "aws certified", "azure certified", "comptia", "ccna", "ccnp",
	// CAD/CAE/CAM
	"cad", "cae", "cam", "cfd", "fea", "fem", "plm", "pdm",
	// protocols and standards
	"tcp/ip", "rest", "restful", "graphql", "soap", "mqtt", "i2c", "spi", "uart", "modbus",
	"oauth", "oauth2", "jwt", "saml",
	// specialised
	"pcb", "fpga", "asic", "vlsi", "embedded", "rtos", "microcontroller",
	"plc", "scada", "hmi", "cnc", "robotics", "automation", "opencv", "ros",
	// version control
	"git", "github", "gitlab", "bitbucket", "svn", "mercurial", "jira", "confluence",
	// testing
	"junit", "pytest", "selenium", "cypress", "jest", "mocha", "chai",
	// build tools
	"maven", "gradle", "webpack", "npm", "yarn", "pip", "cmake", "make",
	// architecture
	"microservices", "microservice", "api", "apis", "distributed systems",
	"caching", "multithreading", "concurrency",
)

// techPatterns accept 2-4 word phrases containing them.
var techPatterns = []string{
	"object-oriented", "object oriented", "data structure", "data structures",
	"machine learning", "deep learning", "computer vision", "natural language processing",
	"finite element", "computational fluid", "power system", "control system",
	"signal processing", "image processing", "digital signal", "analog circuit",
	"digital circuit", "embedded system", "real-time", "real time",
	"distributed system", "distributed systems", "version control",
	"continuous integration", "continuous deployment", "test driven",
	"behavior driven", "domain driven", "computer science", "software engineering",
	"electrical engineering", "mechanical engineering", "civil engineering",
	"data science", "artificial intelligence", "neural network",
	"convolutional neural", "recurrent neural", "reinforcement learning",
	"supervised learning", "unsupervised learning", "web development",
	"mobile development", "full stack", "front end", "back end", "backend",
	"cloud computing", "system design", "design pattern", "design patterns",
	"restful api", "rest api", "solid principles", "fault tolerance",
	"performance optimization", "root cause", "spring boot", "node js",
}

var strongIndicators = []string{
	"programming", "framework", "library", "protocol", "algorithm",
	"api", "sdk", "ide", "simulation", "modeling", "circuit",
	"certified", "certification", "-oriented design", "-based design",
	"-driven development", "element analysis",
}

var toolIndicators = []string{"lab", "cad", "sim", "pro", "max", "studio", "works", "view", "ware", "soft"}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// IsLikelySkill reports whether a candidate phrase names a technology or skill.
// Case matters only for the capitalised-tool heuristic.
func IsLikelySkill(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))

	if noiseWords.has(lower) || commonWords.has(lower) {
		return false
	}
	if containsAny(lower, urlMarkers) {
		return false
	}
	if utf8.RuneCountInString(lower) <= 2 || isDigits(lower) {
		return false
	}
	if commonCities.has(lower) || jobTerms.has(lower) {
		return false
	}
	if strongTechTerms.has(lower) {
		return true
	}

	words := strings.Fields(lower)
	compound := len(words) >= 2 && len(words) <= 4
	if compound && containsAny(lower, techPatterns) {
		return true
	}
	if compound && containsAny(lower, strongIndicators) {
		return true
	}

	if len(words) >= 1 && len(words) <= 3 && hasCapitalisedWord(text) {
		if containsAny(lower, toolIndicators) || utf8.RuneCountInString(lower) <= 8 {
			return true
		}
	}
	return false
}

func hasCapitalisedWord(text string) bool {
	for _, w := range strings.Fields(text) {
		for _, r := range w {
			if unicode.IsUpper(r) {
				return true
			}
			break
		}
	}
	return false
}
