// Package challenges carries the built-in practice catalog and a small
// in-memory search index over it for the /challenge command.
package challenges

import (
	"fmt"
	"math/rand"

	"github.com/ChamsBouzaiene/dojo/internal/curriculum"
)

// Challenge is one practice exercise. Descriptions state the task; the
// hint names the pieces without solving it.
type Challenge struct {
	ID          string
	Mode        string
	Level       curriculum.Level
	Title       string
	Description string
	Hint        string
}

// Catalog lists every built-in challenge: one per level for each mode.
var Catalog = []Challenge{
	// python_basic
	{
		ID: "py_b1", Mode: "python_basic", Level: curriculum.Beginner,
		Title: "Number guessing game",
		Description: "Build a game that picks a random number from 1 to 100 and lets the player guess it. " +
			"Say whether each guess is too high or too low, and show the number of attempts on success.",
		Hint: "random.randint() gives you the secret number; a while loop keeps asking until the guess matches.",
	},
	{
		ID: "py_i1", Mode: "python_basic", Level: curriculum.Intermediate,
		Title: "Calculator with tests",
		Description: "Write functions for the four basic arithmetic operations and a test for each one. " +
			"Handle division by zero without crashing.",
		Hint: "One function per operation, checked with assert. Catch ZeroDivisionError with try/except.",
	},
	{
		ID: "py_a1", Mode: "python_basic", Level: curriculum.Advanced,
		Title: "Logging decorator",
		Description: "Write a decorator that logs every call to a function together with how long it took, " +
			"then apply it to at least three functions.",
		Hint: "functools.wraps keeps the wrapped function's name; time.time() before and after gives the duration.",
	},

	// py5
	{
		ID: "p5_b1", Mode: "py5", Level: curriculum.Beginner,
		Title:       "Ten random circles",
		Description: "Draw ten circles at random positions with random colors and sizes.",
		Hint:        "Pick positions and colors with random.randint(), draw with circle() inside setup().",
	},
	{
		ID: "p5_i1", Mode: "py5", Level: curriculum.Intermediate,
		Title: "Bouncing ball",
		Description: "Animate a ball that bounces off every edge of the window. " +
			"Use speed variables and conditionals.",
		Hint: "Track x, y and vx, vy; flip the speed's sign when the ball touches a wall.",
	},
	{
		ID: "p5_a1", Mode: "py5", Level: curriculum.Advanced,
		Title: "Particle burst",
		Description: "Make particles scatter from the mouse position on every click. " +
			"Give each particle a lifetime, gravity, and a fade-out.",
		Hint: "A Particle class holding position, velocity and remaining life, with live particles kept in a list.",
	},

	// sklearn
	{
		ID: "sk_b1", Mode: "sklearn", Level: curriculum.Beginner,
		Title:       "First look at iris",
		Description: "Load the iris dataset and show its basic statistics and a scatter plot of two features.",
		Hint:        "load_iris() returns the data; numpy gives you means and variances.",
	},
	{
		ID: "sk_i1", Mode: "sklearn", Level: curriculum.Intermediate,
		Title: "Decision tree with honest scores",
		Description: "Classify iris with a decision tree and judge it with cross validation. " +
			"Show the confusion matrix too.",
		Hint: "DecisionTreeClassifier plus cross_val_score; confusion_matrix shows where it goes wrong.",
	},
	{
		ID: "sk_a1", Mode: "sklearn", Level: curriculum.Advanced,
		Title:       "Grid search tuning",
		Description: "Optimize a model's hyperparameters with GridSearchCV and report how the best setting performs.",
		Hint:        "Define a param_grid dict and read best_params_ off the fitted search.",
	},

	// pandas
	{
		ID: "pd_b1", Mode: "pandas", Level: curriculum.Beginner,
		Title: "Sales table",
		Description: "Build a DataFrame of product names, quantities and unit prices, compute total sales, " +
			"and show them as a bar chart.",
		Hint: "pd.DataFrame({...}) builds the table; a new column holds quantity times price.",
	},
	{
		ID: "pd_i1", Mode: "pandas", Level: curriculum.Intermediate,
		Title: "Group report",
		Description: "Aggregate a dataset by category with groupby and lay the results out as several charts " +
			"side by side.",
		Hint: "df.groupby('category').sum() aggregates; subplots place the charts next to each other.",
	},
	{
		ID: "pd_a1", Mode: "pandas", Level: curriculum.Advanced,
		Title:       "One-expression pipeline",
		Description: "Chain loading, filtering, transforming and aggregating into a single method-chain expression.",
		Hint:        "query(), assign(), groupby() and agg() compose into one chain.",
	},

	// web_basic
	{
		ID: "wb_b1", Mode: "web_basic", Level: curriculum.Beginner,
		Title: "Profile page",
		Description: "Build a small personal profile page: a heading, a photo, a short paragraph and a list of " +
			"favorite links, styled with an external stylesheet.",
		Hint: "One HTML file and one CSS file; img, ul and a elements cover the content.",
	},
	{
		ID: "wb_i1", Mode: "web_basic", Level: curriculum.Intermediate,
		Title: "Color palette picker",
		Description: "Show a row of color swatches; clicking one paints the page background and shows the chosen " +
			"color's code.",
		Hint: "Give each swatch a data attribute and one click handler via addEventListener.",
	},
	{
		ID: "wb_a1", Mode: "web_basic", Level: curriculum.Advanced,
		Title: "Responsive gallery",
		Description: "Build an image gallery that rearranges from three columns to one as the window narrows, " +
			"with a hover animation on each tile.",
		Hint: "A grid or flexbox layout plus an @media query; transition handles the hover.",
	},

	// aframe
	{
		ID: "af_b1", Mode: "aframe", Level: curriculum.Beginner,
		Title:       "First 3D scene",
		Description: "Place a box, a sphere and a ground plane in an A-Frame scene, each with its own color and position.",
		Hint:        "a-box, a-sphere and a-plane entities with position and color attributes.",
	},
	{
		ID: "af_i1", Mode: "aframe", Level: curriculum.Intermediate,
		Title:       "Spin and click",
		Description: "Make one object rotate forever and another change color when clicked.",
		Hint:        "The animation attribute loops a rotation; a cursor plus a click listener swaps the color.",
	},
	{
		ID: "af_a1", Mode: "aframe", Level: curriculum.Advanced,
		Title:       "Grab it in VR",
		Description: "Let the user grab and move an object with a VR controller.",
		Hint:        "hand-controls components and the gripdown/gripup events.",
	},

	// threejs
	{
		ID: "tj_b1", Mode: "threejs", Level: curriculum.Beginner,
		Title:       "Spinning cube",
		Description: "Show a cube and spin it inside the animation loop.",
		Hint:        "BoxGeometry, MeshBasicMaterial and a Mesh; bump rotation each frame in the animate function.",
	},
	{
		ID: "tj_i1", Mode: "threejs", Level: curriculum.Intermediate,
		Title:       "Orbit the scene",
		Description: "Add OrbitControls so the mouse can rotate and zoom the camera around the scene.",
		Hint:        "new OrbitControls(camera, renderer.domElement), then update() inside animate.",
	},
	{
		ID: "tj_a1", Mode: "threejs", Level: curriculum.Advanced,
		Title:       "Click detection",
		Description: "Detect which object the user clicked with a Raycaster and change its color.",
		Hint:        "Feed mouse coordinates to the raycaster and call intersectObjects on the scene children.",
	},
}

// ForMode returns the challenges of one mode at one level.
func ForMode(mode string, level curriculum.Level) []Challenge {
	var out []Challenge
	for _, c := range Catalog {
		if c.Mode == mode && c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

// Pick chooses a random challenge for the mode and level. It falls back
// to any level of the mode before giving up, so a fresh mode always has
// something to offer.
func Pick(mode string, level curriculum.Level) (Challenge, bool) {
	candidates := ForMode(mode, level)
	if len(candidates) == 0 {
		for _, c := range Catalog {
			if c.Mode == mode {
				candidates = append(candidates, c)
			}
		}
	}
	if len(candidates) == 0 {
		return Challenge{}, false
	}
	return candidates[rand.Intn(len(candidates))], true
}

// ByID looks a challenge up by its ID.
func ByID(id string) (Challenge, bool) {
	for _, c := range Catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}

// Format renders a challenge for the transcript.
func Format(c Challenge) string {
	return fmt.Sprintf("Challenge: %s (%s, %s)\n\n%s\n\nHint: %s",
		c.Title, c.Mode, c.Level, c.Description, c.Hint)
}
