// Package expression evaluates expressions for workflow nodes.
//
// # Overview
//
// Expressions are compiled and run by github.com/expr-lang/expr. Before
// compiling, the package rewrites a few shorthand forms (see Syntax
// Conversions) and builds an environment from the input value, a Context and
// a fixed set of helper functions.
//
// # Features
//
//   - Field access: Navigate object hierarchies (item.profile.name)
//   - Array indexing: Access array elements (item.items[0])
//   - Operators: Arithmetic, comparison, logical, string concatenation
//   - Functions: The helpers listed below plus expr-lang's own built-ins
//   - Context: Node results, workflow variables and context values
//
// # Environment
//
// An expression sees these names:
//
//	item, input         // the input value passed to Evaluate/EvaluateExpression
//	node.<id>...        // Context.NodeResults
//	variables.<name>    // Context.Variables (each variable is also visible by its bare name)
//	context.<name>      // Context.ContextVars
//
// # Syntax Conversions
//
//	>100, >100 && <200  // a leading comparison is applied to input
//	item.tags.length    // rewritten to len(item.tags)
//	map(arr, item.age)  // rewritten to an expr-lang closure over each element
//
// # Expression Syntax
//
// Basic field access:
//
//	item.name           // Access field
//	item.profile.email  // Nested field access
//	item.items[0]       // Array index
//	item.users[5].name  // Combined access
//
// Operators:
//
//	x + y               // Addition
//	x - y               // Subtraction
//	x * y               // Multiplication
//	x / y               // Division
//	x % y               // Modulo
//	x == y              // Equality
//	x != y              // Inequality
//	x > y, x < y        // Comparison
//	x >= y, x <= y      // Comparison
//	x && y              // Logical AND
//	x || y              // Logical OR
//	!x                  // Logical NOT
//
// String operations:
//
//	"Hello" + " " + "World"  // Concatenation
//
// # Helper Functions
//
// String functions:
//
//	upper(text), toUpperCase(text)  // Convert to uppercase
//	lower(text), toLowerCase(text)  // Convert to lowercase
//	trim(text)                      // Remove surrounding whitespace
//	split(text, sep)                // Split into array
//	join(array, sep)                // Join array elements
//	replace(text, old, new)         // Replace every occurrence
//	contains(text, substr)          // Check if contains
//	startsWith(text, prefix)        // Check prefix
//	endsWith(text, suffix)          // Check suffix
//
// Array functions:
//
//	first(array), last(array)  // First/last element (nil when empty)
//	reverse(array)             // Reverse array
//	unique(array)              // Remove duplicates
//	flatten(array)             // Flatten nested arrays
//	slice(array, start[, end]) // Sub-array; negative indexes count from the end
//	zip(arr1, arr2, ...)       // Tuples of same-index elements
//
// Math functions (sum, avg, min and max take an array or several numbers;
// abs, ceil, floor and round also map over an array):
//
//	sum(...), avg(...), min(...), max(...)
//	abs(x), ceil(x), floor(x), round(x)
//	sqrt(x), pow(x, y)
//
// Date/Time functions:
//
//	now()                                  // Current time
//	parseDate(value)                       // Parse a date string or Unix seconds
//	toEpoch(value), toEpochMillis(value)   // Convert to Unix seconds/milliseconds
//	fromEpoch(secs), fromEpochMillis(ms)   // Convert from Unix time
//	dateDiff(t1, t2), dateAdd(t, secs)     // Difference in seconds / add seconds
//	year(t), month(t), day(t), hour(t), minute(t)
//
// Null handling:
//
//	isNull(value)          // Check if null
//	coalesce(a, b, ...)    // First non-null argument
//
// # Usage Examples
//
// Boolean evaluation:
//
//	ok, err := expression.Evaluate("item.age >= 18", map[string]interface{}{
//	    "age": 25.0,
//	}, nil)
//	// ok: true
//
// Value evaluation:
//
//	v, err := expression.EvaluateExpression("item.price * 2", product, nil)
//
// Context values:
//
//	ok, err := expression.Evaluate("context.maxRetries > 2", nil, &expression.Context{
//	    ContextVars: map[string]interface{}{"maxRetries": 3.0},
//	})
//
// # Error Handling
//
// Compilation and runtime failures are returned as errors wrapping the
// expr-lang error ("expression compilation failed: ..." or "expression
// execution failed: ..."). Evaluate also fails when the result is not a
// boolean.
//
// # Performance
//
// Compiled programs are cached by expression text in one process-wide
// engine, so repeated evaluation of the same expression skips compilation.
//
// # Thread Safety
//
// Evaluate and EvaluateExpression may be called from multiple goroutines; the
// shared program cache is guarded by a mutex.
package expression
