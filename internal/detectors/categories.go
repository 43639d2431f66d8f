package detectors

// Built-in category identifiers.
const (
	CategoryRemoteExecution = "ejecucion_remota_critica"
	CategorySuspiciousHTTP  = "conexiones_http_sospechosas"
	CategoryAdminCommands   = "comandos_administrativos_sospechosos"
	CategoryFileAccess      = "acceso_archivos_critico"
	CategoryObfuscation     = "codigo_altamente_ofuscado"
	CategoryFileAccessBroad = "acceso_archivos_medio"
)

// LOW sensitivity keeps only categories whose name contains one of these.
var criticalNameMarkers = []string{"critica", "critico"}

type patternDef struct {
	expr string
	// urlGroup names a capture group holding a URL; the occurrence only
	// counts when that URL's host is outside the trusted set.
	urlGroup int
	// notFollowedBy rejects an occurrence when the text right after the
	// match starts with one of these (case-insensitive).
	notFollowedBy []string
}

type categoryDef struct {
	name     string
	patterns []patternDef
}

var baselineCategories = []categoryDef{
	{
		name: CategoryRemoteExecution,
		patterns: []patternDef{
			{expr: `loadstring\s*\(\s*PerformHttpRequest\s*\(`},
			{expr: `load\s*\(\s*PerformHttpRequest\s*\(`},
			{expr: `dofile\s*\(\s*["'](https?://[^\s"'/]*)`, urlGroup: 1},
			{expr: `require\s*\(\s*["'](https?://[^\s"'/]*)`, urlGroup: 1},
			{expr: `RunString\s*\(\s*http\.`},
			{expr: `CompileString\s*\(\s*http\.`},
		},
	},
	{
		name: CategorySuspiciousHTTP,
		patterns: []patternDef{
			{
				expr:     `PerformHttpRequest\s*\(\s*["'](https?://[^"'/]*\.[a-z]{2,})(?:/[^"']*)?/[^"'/]*\.(?:php|asp|jsp|py)(?:\?[^"']*)?/[^"']`,
				urlGroup: 1,
			},
			{
				expr:     `http\.(?:post|get)\s*\(\s*["'](https?://[^\s"'/]*)[^"']*/(?:admin|panel|backdoor|shell)`,
				urlGroup: 1,
			},
		},
	},
	{
		name: CategoryAdminCommands,
		patterns: []patternDef{
			{expr: `ExecuteCommand\s*\(\s*["'](?:restart|stop|quit)\s+[^"']`},
			{expr: `TriggerServerEvent\s*\(\s*["']__cfx_internal:.*?rcon`},
			{expr: `rconPassword\s*=\s*["'][^"']`},
			// permanent ban
			{expr: `ExecuteCommand\s*\(\s*["']ban\s+\d+\s+0\s+`},
		},
	},
	{
		name: CategoryFileAccess,
		patterns: []patternDef{
			{expr: `io\.open\s*\(\s*["'].*?\.(?:exe|bat|cmd|ps1)`},
			{expr: `os\.execute\s*\(\s*["'](?:del|rm|format|shutdown)`},
			{expr: `io\.popen\s*\(\s*["'](?:cmd|powershell|bash)`},
			{expr: `file\.Delete\s*\(\s*["'].*?\.(?:lua|js|cfg)`},
		},
	},
	{
		name: CategoryObfuscation,
		patterns: []patternDef{
			{expr: `string\.char\s*\(\s*\d+(?:\s*,\s*\d+){20,}`},
			{expr: `\\x[0-9a-fA-F]{2}(?:\\x[0-9a-fA-F]{2}){10,}`},
			{expr: `_G\[.*?string\.char.*?\]\s*\(`},
		},
	},
}

// aggressiveCategories are added on top of the baseline at HIGH sensitivity.
var aggressiveCategories = []categoryDef{
	{
		name: CategoryFileAccessBroad,
		patterns: []patternDef{
			{
				expr:          `LoadResourceFile\s*\(\s*[^,]+,\s*["']`,
				notFollowedBy: []string{"config", "shared", "client", "server"},
			},
		},
	},
}
