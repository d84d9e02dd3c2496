// Package curriculum tracks which concepts the student has met and
// picks the teaching register for the education block of the system
// message. It never feeds the gates: imports, tools and extensions
// stay mode-bound whatever the level says.
package curriculum

import "regexp"

// Level is the student's current stage within one mode.
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

// LevelOrder lists levels from first to last.
var LevelOrder = []Level{Beginner, Intermediate, Advanced}

// LevelUpThreshold is the share of a level's concepts that must be
// mastered before the next level opens.
const LevelUpThreshold = 0.6

// ParseLevel returns the level for a stored string, falling back to
// Beginner for anything unknown.
func ParseLevel(s string) Level {
	switch Level(s) {
	case Beginner, Intermediate, Advanced:
		return Level(s)
	}
	return Beginner
}

// Catalog holds one mode's concepts grouped by level, in teaching
// order.
type Catalog struct {
	Beginner     []string
	Intermediate []string
	Advanced     []string
}

// ForLevel returns the concepts of a single level.
func (c Catalog) ForLevel(l Level) []string {
	switch l {
	case Intermediate:
		return c.Intermediate
	case Advanced:
		return c.Advanced
	}
	return c.Beginner
}

// All returns every concept in teaching order.
func (c Catalog) All() []string {
	out := make([]string, 0, len(c.Beginner)+len(c.Intermediate)+len(c.Advanced))
	out = append(out, c.Beginner...)
	out = append(out, c.Intermediate...)
	out = append(out, c.Advanced...)
	return out
}

// Catalogs maps mode IDs to their concept catalogs. Concept names are
// shared across modes where the idea is the same (geometry, shaders),
// so their detection patterns live in one table below.
var Catalogs = map[string]Catalog{
	"python_basic": {
		Beginner:     []string{"variables", "types", "print", "conditionals", "loops", "functions", "lists"},
		Intermediate: []string{"classes", "error handling", "file handling", "list comprehensions", "writing tests", "modules"},
		Advanced:     []string{"decorators", "generators", "design patterns", "security", "performance"},
	},
	"py5": {
		Beginner:     []string{"setup function", "draw function", "coordinates", "drawing shapes", "color", "variables", "loops"},
		Intermediate: []string{"animation", "mouse input", "keyboard input", "helper functions", "lists of shapes", "conditionals"},
		Advanced:     []string{"sketch classes", "particles", "vectors", "3d drawing", "shaders"},
	},
	"sklearn": {
		Beginner:     []string{"numpy arrays", "loading data", "scatter plots", "mean and variance", "train test split", "linear regression", "scoring"},
		Intermediate: []string{"preprocessing", "scaling", "classification", "decision trees", "cross validation", "confusion matrix"},
		Advanced:     []string{"pipelines", "hyperparameter tuning", "ensembles", "dimensionality reduction", "clustering"},
	},
	"pandas": {
		Beginner:     []string{"dataframes", "reading csv", "selecting columns", "filtering rows", "summary statistics", "bar charts", "line charts"},
		Intermediate: []string{"groupby", "merging", "missing values", "pivot tables", "subplots", "datetimes"},
		Advanced:     []string{"method chaining", "apply", "large datasets", "plot styling", "data pipelines"},
	},
	"web_basic": {
		Beginner:     []string{"html structure", "text elements", "links and images", "css selectors", "colors and fonts", "the box model", "layout"},
		Intermediate: []string{"flexbox", "forms", "dom access", "events", "javascript functions", "positioning"},
		Advanced:     []string{"responsive design", "css animation", "canvas drawing", "accessibility", "performance tuning"},
	},
	"aframe": {
		Beginner:     []string{"scene layout", "entities", "geometry", "materials", "position", "rotation", "scale"},
		Intermediate: []string{"animation", "events", "custom components", "textures", "lighting", "cameras"},
		Advanced:     []string{"physics", "vr controllers", "performance tuning", "loading models", "shaders"},
	},
	"threejs": {
		Beginner:     []string{"scenes", "cameras", "renderers", "meshes", "geometry", "materials", "animation loop"},
		Intermediate: []string{"lights", "textures", "orbit controls", "groups", "raycasting", "event handling"},
		Advanced:     []string{"shaders", "post processing", "physics", "level of detail", "performance tuning"},
	},
}

// conceptPatterns maps a concept to regex alternatives that signal it
// in a reply, prose or code. Matching is case-insensitive; the first
// hit counts.
var conceptPatterns = map[string][]string{
	// python_basic
	"variables":           {`\bvariables?\b`},
	"types":               {`\btypes?\b`, `\bint\b`, `\bstr\b`, `\bfloat\b`, `\bbool\b`},
	"print":               {`\bprint\s*\(`, `\bprint function`},
	"conditionals":        {`\bconditionals?\b`, `\bif\b.*:`, `\belse\b`, `\belif\b`},
	"loops":               {`\bloops?\b`, `\bfor\b.*:`, `\bwhile\b.*:`},
	"functions":           {`\bfunctions?\b`, `\bdef\s+\w+`},
	"lists":               {`\blists?\b`},
	"classes":             {`\bclass\s+\w+`, `\bclasses\b`},
	"error handling":      {`\berror handling`, `\bexceptions?\b`, `\btry\b.*:`, `\bexcept\b`},
	"file handling":       {`\bfiles?\b`, `\bopen\s*\(`},
	"list comprehensions": {`comprehensions?\b`, `\[.*\bfor\b.*\bin\b.*\]`},
	"writing tests":       {`\btests?\b`, `\btest_\w+`, `\bassert\b`},
	"modules":             {`\bmodules?\b`, `\bimport\s+\w+`},
	"decorators":          {`\bdecorators?\b`, `@\w+`},
	"generators":          {`\bgenerators?\b`, `\byield\b`},
	"design patterns":     {`\bdesign patterns?\b`},
	"security":            {`\bsecurity\b`, `\bsanitiz`},
	"performance":         {`\bperformance\b`, `\boptimiz`},

	// py5
	"setup function":   {`\bsetup\s*\(`},
	"draw function":    {`\bdraw\s*\(`},
	"coordinates":      {`\bcoordinates?\b`},
	"drawing shapes":   {`\bshapes?\b`, `\bcircle\b`, `\brect\b`, `\bellipse\b`},
	"color":            {`\bcolors?\b`, `\bfill\b`, `\bstroke\b`, `\bbackground\b`},
	"animation":        {`\banimat`},
	"mouse input":      {`\bmouse`},
	"keyboard input":   {`\bkeyboard\b`, `\bkey_\w+`},
	"helper functions": {`\bhelper functions?\b`, `\bsplit\b.*\bfunctions?\b`},
	"lists of shapes":  {`\barrays?\b`, `\blist of\b`},
	"sketch classes":   {`\bclass\s+\w+`, `\bclasses\b`},
	"particles":        {`\bparticles?\b`},
	"vectors":          {`\bvectors?\b`},
	"3d drawing":       {`\b3d\b`},
	"shaders":          {`\bshaders?\b`},

	// sklearn
	"numpy arrays":             {`\bnumpy\b`, `\bnp\.`},
	"loading data":             {`\bload`},
	"scatter plots":            {`\bscatter`},
	"mean and variance":        {`\bmean\b`, `\bvariance\b`},
	"train test split":         {`train_test_split`, `\btrain[ /-]test split`},
	"linear regression":        {`\blinear regression`, `LinearRegression`},
	"scoring":                  {`\bscore\b`, `\baccuracy\b`},
	"preprocessing":            {`\bpreprocess`},
	"scaling":                  {`\bscaling\b`, `StandardScaler`},
	"classification":           {`\bclassif`},
	"decision trees":           {`\bdecision trees?\b`, `DecisionTree`},
	"cross validation":         {`\bcross[ -]validat`, `cross_val`},
	"confusion matrix":         {`\bconfusion[ _]matrix`},
	"pipelines":                {`\bpipelines?\b`},
	"hyperparameter tuning":    {`\bhyperparameters?\b`, `GridSearch`},
	"ensembles":                {`\bensembles?\b`, `RandomForest`},
	"dimensionality reduction": {`\bdimensionality\b`, `\bPCA\b`},
	"clustering":               {`\bcluster`, `KMeans`},

	// pandas
	"dataframes":         {`\bdata ?frames?\b`},
	"reading csv":        {`\bcsv\b`, `read_csv`},
	"selecting columns":  {`\bcolumns?\b`},
	"filtering rows":     {`\bfilter`},
	"summary statistics": {`\bdescribe\s*\(`, `\bstatistics\b`, `\bsummary\b`},
	"bar charts":         {`\bbar charts?\b`, `\.bar\s*\(`},
	"line charts":        {`\bline (?:charts?|plots?|graphs?)\b`, `\.plot\s*\(`},
	"groupby":            {`\bgroupby\b`, `\bgroup by\b`},
	"merging":            {`\bmerge\b`, `\bjoin\b`},
	"missing values":     {`\bmissing\b`, `\bdropna\b`, `\bfillna\b`, `\bnan\b`},
	"pivot tables":       {`\bpivot`},
	"subplots":           {`\bsubplots?\b`},
	"datetimes":          {`\bdatetimes?\b`, `to_datetime`},
	"method chaining":    {`\bchain`},
	"apply":              {`\bapply\b`},
	"large datasets":     {`\blarge datasets?\b`, `\bchunk`},
	"plot styling":       {`\blegend\b`, `\baxis label`, `\btitle\s*\(`},
	"data pipelines":     {`\bdata pipelines?\b`},

	// web_basic
	"html structure":       {`<!doctype`, `\bhtml structure`, `<body`, `<head`},
	"text elements":        {`<h[1-6]`, `<p[ >]`, `\bheadings?\b`, `\bparagraphs?\b`},
	"links and images":     {`<a[ >]`, `<img`, `\blinks?\b`, `\bimages?\b`},
	"css selectors":        {`\bselectors?\b`},
	"colors and fonts":     {`\bfont`, `color\s*:`},
	"the box model":        {`\bbox model`, `\bmargin\b`, `\bpadding\b`},
	"layout":               {`\blayout\b`, `display\s*:`},
	"flexbox":              {`\bflex`},
	"forms":                {`<form`, `<input`, `\bforms?\b`},
	"dom access":           {`\bdom\b`, `getElementById`, `querySelector`},
	"events":               {`\bevents?\b`, `addEventListener`},
	"javascript functions": {`\bfunction\s+\w+`, `=>`},
	"positioning":          {`position\s*:`, `\babsolute\b`, `\brelative\b`},
	"responsive design":    {`\bresponsive\b`, `@media`},
	"css animation":        {`@keyframes`, `\btransition\b`, `\banimat`},
	"canvas drawing":       {`<canvas`, `\bcanvas\b`},
	"accessibility":        {`\baccessib`, `\baria-`},
	"performance tuning":   {`\bperformance\b`, `\boptimiz`},

	// aframe
	"scene layout":      {`a-scene`, `\bscenes?\b`},
	"entities":          {`a-entity`, `\bentit`},
	"geometry":          {`\bgeometr`},
	"materials":         {`\bmaterials?\b`},
	"position":          {`\bposition\b`},
	"rotation":          {`\brotat`},
	"scale":             {`\bscale\b`},
	"custom components": {`registerComponent`, `\bcomponents?\b`},
	"textures":          {`\btextures?\b`},
	"lighting":          {`\blight`},
	"cameras":           {`\bcameras?\b`, `PerspectiveCamera`},
	"physics":           {`\bphysics\b`},
	"vr controllers":    {`\bvr\b`, `\bcontrollers?\b`},
	"loading models":    {`\bgltf\b`, `\bglb\b`, `loading models?`},

	// threejs
	"scenes":           {`\bscenes?\b`, `THREE\.Scene`},
	"renderers":        {`\brenderers?\b`, `WebGLRenderer`},
	"meshes":           {`\bmesh`},
	"animation loop":   {`requestAnimationFrame`, `\banimation loop`},
	"lights":           {`\blight`},
	"orbit controls":   {`OrbitControls`, `\borbit\b`},
	"groups":           {`\bgroups?\b`},
	"raycasting":       {`\braycast`},
	"event handling":   {`addEventListener`, `\bevent handl`},
	"post processing":  {`\bpost[- ]?process`},
	"level of detail":  {`\blod\b`, `\blevel of detail`},
}

var conceptRegexps = make(map[string][]*regexp.Regexp, len(conceptPatterns))

func init() {
	for concept, sources := range conceptPatterns {
		compiled := make([]*regexp.Regexp, len(sources))
		for i, src := range sources {
			compiled[i] = regexp.MustCompile(`(?i)` + src)
		}
		conceptRegexps[concept] = compiled
	}
}

// Extract returns the catalog concepts a reply touches, in teaching
// order. Detection is a heuristic over prose and code alike; a missed
// concept costs one sighting, nothing more.
func Extract(text, modeID string) []string {
	catalog, ok := Catalogs[modeID]
	if !ok || text == "" {
		return nil
	}

	var found []string
	for _, concept := range catalog.All() {
		for _, re := range conceptRegexps[concept] {
			if re.MatchString(text) {
				found = append(found, concept)
				break
			}
		}
	}
	return found
}

// JudgeLevel walks the levels in order and stops at the first one the
// student has not yet mastered enough of. Mastering at least
// LevelUpThreshold of a level's concepts opens the next.
func JudgeLevel(modeID string, mastered map[string]bool) Level {
	catalog, ok := Catalogs[modeID]
	if !ok {
		return Beginner
	}

	for _, level := range LevelOrder {
		concepts := catalog.ForLevel(level)
		if len(concepts) == 0 {
			continue
		}
		count := 0
		for _, c := range concepts {
			if mastered[c] {
				count++
			}
		}
		if float64(count)/float64(len(concepts)) < LevelUpThreshold {
			return level
		}
	}
	return Advanced
}
