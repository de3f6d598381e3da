package i18n

var messages = map[string]map[string]string{
	LangEnglish: {
		"notification_gpx_loaded":    "Track Loaded",
		"notification_video_loaded":  "Video Loaded",
		"notification_sync_selected": "Sync Point Selected",
		"notification_success":       "Video Ready",
		"notification_error":         "Error",
		"notification_warning":       "Warning",
		"notification_suggestion":    "Auto Suggestion",
		"notification_map":           "Map",
		"notification_cancelled":     "Cancelled",

		"track_loaded":             "{{type}} loaded: {{name}}",
		"video_loaded":             "{{name}}",
		"track_type_unsupported":   "Unsupported file type. Use: {{allowed}}",
		"track_too_large":          "File too large. Maximum size: 50MB",
		"video_type_unsupported":   "Unsupported video format. Use: MP4, AVI, MOV, MKV, etc.",
		"video_too_large":          "Video too large. Maximum size: 2GB",
		"analyzing_files":          "Analyzing files to suggest sync point and track...",
		"track_points_loaded":      "Track loaded: {{count}} points",
		"track_no_points":          "No valid track point found",
		"track_no_valid_coords":    "No valid coordinate found in the data",
		"track_displayed":          "Track displayed: {{count}} valid points",
		"track_single_point":       "Track has a single valid point. A line cannot be drawn.",
		"track_bad_bounds":         "Track coordinates look incorrect",
		"track_extra_detected":     "{{type}} with full telemetry detected!",
		"suggestion_applied":       "Suggested sync point: {{time}}",
		"suggestion_invalid":       "Invalid sync point suggestion. Select one manually on the map.",
		"suggestion_superseded":    "A suggestion arrived after your manual choice and was not applied.",
		"suggestion_error":         "Could not get suggestion: {{message}}. Please select a point manually.",
		"suggestion_comm_error":    "Communication error while getting suggestion. Please select a point manually.",
		"select_manually":          "Select a sync point manually on the map.",
		"track_loaded_select":      "Track loaded. Select the sync point manually on the map.",
		"sync_point_selected":      "Point selected ({{type}}): {{time}} (UTC)",
		"sync_point_coords":        "Coordinates: {{lat}}, {{lon}}",
		"sync_point_invalid":       "Invalid sync point coordinates",
		"manual_type":              "manual",
		"suggestion_type":          "suggestion",
		"time_unavailable":         "Time unavailable",
		"no_track_loaded":          "Load a track before picking a point on the map.",
		"error_missing_files":      "Error: Please select both files and a sync point.",
		"error_missing_sync_point": "Error: Please select a sync point on the map.",
		"error_sync_point_time":    "Error: The selected sync point has no timestamp. Pick another point.",
		"error_missing_overlay":    "Error: Please select at least one overlay (Speedometer, Map, or Statistics).",
		"error_already_running":    "A video is already being processed.",
		"success_message":          "Success! Your video is ready.",
		"server_error":             "Error: {{message}}",
		"network_error":            "Network error while uploading files.",
		"processing_cancelled":     "Processing cancelled by the user",
		"step_upload":              "Uploading files",
		"step_analysis":            "Analyzing GPX data",
		"step_sync":                "Synchronizing with video",
		"step_overlays":            "Applying overlays",
		"step_render":              "Rendering final video",
	},
	LangPortuguese: {
		"notification_gpx_loaded":    "GPX Carregado",
		"notification_video_loaded":  "Vídeo Carregado",
		"notification_sync_selected": "Ponto Selecionado",
		"notification_success":       "Vídeo Pronto",
		"notification_error":         "Erro",
		"notification_warning":       "Aviso",
		"notification_suggestion":    "Sugestão Automática",
		"notification_map":           "Mapa",
		"notification_cancelled":     "Cancelamento",

		"track_loaded":             "{{type}} carregado: {{name}}",
		"video_loaded":             "{{name}}",
		"track_type_unsupported":   "Tipo de arquivo não suportado. Use: {{allowed}}",
		"track_too_large":          "Arquivo muito grande. Tamanho máximo: 50MB",
		"video_type_unsupported":   "Formato de vídeo não suportado. Use: MP4, AVI, MOV, MKV, etc.",
		"video_too_large":          "Vídeo muito grande. Tamanho máximo: 2GB",
		"analyzing_files":          "Analisando ficheiros para sugerir ponto e percurso...",
		"track_points_loaded":      "Trilha carregada: {{count}} pontos",
		"track_no_points":          "Nenhum ponto de trilha válido encontrado",
		"track_no_valid_coords":    "Nenhuma coordenada válida encontrada nos dados",
		"track_displayed":          "Trilha exibida: {{count}} pontos válidos",
		"track_single_point":       "Trilha tem apenas um ponto válido. Não é possível traçar linha.",
		"track_bad_bounds":         "Coordenadas da trilha parecem estar incorretas",
		"track_extra_detected":     "{{type}} com telemetria completa detectado!",
		"suggestion_applied":       "Ponto de sincronização sugerido: {{time}}",
		"suggestion_invalid":       "Ponto de sincronização inválido. Selecione manualmente no mapa.",
		"suggestion_superseded":    "Uma sugestão chegou depois da sua escolha manual e não foi aplicada.",
		"suggestion_error":         "Não foi possível obter sugestão: {{message}}. Selecione um ponto manualmente.",
		"suggestion_comm_error":    "Erro de comunicação ao obter sugestão. Selecione um ponto manualmente.",
		"select_manually":          "Selecione manualmente um ponto no mapa para sincronização.",
		"track_loaded_select":      "Trilha carregada. Selecione manualmente o ponto de sincronização no mapa.",
		"sync_point_selected":      "Ponto selecionado ({{type}}): {{time}} (UTC)",
		"sync_point_coords":        "Coordenadas: {{lat}}, {{lon}}",
		"sync_point_invalid":       "Coordenadas do ponto de sincronização inválidas",
		"manual_type":              "manual",
		"suggestion_type":          "sugestão",
		"time_unavailable":         "Tempo não disponível",
		"no_track_loaded":          "Carregue uma trilha antes de escolher um ponto no mapa.",
		"error_missing_files":      "Erro: Por favor, selecione os dois ficheiros e um ponto de sincronização.",
		"error_missing_sync_point": "Erro: Por favor, selecione um ponto de sincronização no mapa.",
		"error_sync_point_time":    "Erro: O ponto selecionado não tem horário. Escolha outro ponto.",
		"error_missing_overlay":    "Erro: Por favor, selecione pelo menos um overlay (Velocímetro, Mapa ou Estatísticas).",
		"error_already_running":    "Um vídeo já está sendo processado.",
		"success_message":          "Sucesso! O seu vídeo está pronto.",
		"server_error":             "Erro: {{message}}",
		"network_error":            "Erro de rede ao enviar os ficheiros.",
		"processing_cancelled":     "Processamento cancelado pelo usuário",
		"step_upload":              "Enviando arquivos",
		"step_analysis":            "Analisando dados GPX",
		"step_sync":                "Sincronizando com vídeo",
		"step_overlays":            "Aplicando overlays",
		"step_render":              "Renderizando vídeo final",
	},
}
