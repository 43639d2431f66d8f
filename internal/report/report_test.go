package report

import (
	"time"

	"github.com/hazteunsitio/hz-backdoor-monitor/internal/types"
)

func sampleDetections() []types.Detection {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return []types.Detection{
		{
			File: "/srv/res/loader/client.lua", LineNumber: 4, Category: "comentarios_sospechosos",
			Pattern: `--\s*backdoor`, MatchText: "-- backdoor", LineContent: "-- backdoor",
			RiskLevel: types.RiskInfo, Context: "    3: local x = 1\n>>> 4: -- backdoor", Timestamp: ts,
		},
		{
			File: "/srv/res/loader/server.lua", LineNumber: 2, Category: "ejecucion_remota_critica",
			Pattern: `load\s*\(`, MatchText: "load(", LineContent: `load(body)()`,
			RiskLevel: types.RiskCritical, Context: "    1: PerformHttpRequest(url, function(_, body)\n>>> 2: load(body)()\n    3: end)", Timestamp: ts,
		},
		{
			File: "/srv/res/admin/server.js", LineNumber: 9, Category: "comandos_administrativos_sospechosos",
			Pattern: `ExecuteCommand`, MatchText: "ExecuteCommand", LineContent: `ExecuteCommand("add_ace ...")`,
			RiskLevel: types.RiskHigh, Context: ">>> 9: ExecuteCommand(\"add_ace ...\")", Timestamp: ts,
		},
	}
}
