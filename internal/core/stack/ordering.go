package stack

// =============================================================================
// Service Ordering Functions
// =============================================================================

// TopologicalSort sorts services by their dependencies using Kahn's algorithm.
// Services with no dependencies come first, so dependents start after the
// services they wait for.
//
// If a cycle exists (which should be caught at parse time), remaining
// services are appended to the result as a fallback.
//
// Example:
//
//	// Services: gateway → comfyui → indextts
//	services := []Service{
//	    {Name: "gateway", DependsOn: []string{"comfyui"}},
//	    {Name: "comfyui", DependsOn: []string{"indextts"}},
//	    {Name: "indextts"},
//	}
//	sorted := TopologicalSort(services)
//	// Result: [indextts, comfyui, gateway]
func TopologicalSort(services []Service) []Service {
	if len(services) == 0 {
		return services
	}

	serviceMap := make(map[string]Service)
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, svc := range services {
		serviceMap[svc.Name] = svc
		inDegree[svc.Name] = len(svc.DependsOn)
		for _, dep := range svc.DependsOn {
			dependents[dep] = append(dependents[dep], svc.Name)
		}
	}

	var queue []string
	for _, svc := range services {
		if inDegree[svc.Name] == 0 {
			queue = append(queue, svc.Name)
		}
	}

	var result []Service
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if svc, ok := serviceMap[name]; ok {
			result = append(result, svc)
		}

		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	// Cycle fallback: append whatever did not make it into the result
	if len(result) < len(services) {
		inResult := make(map[string]bool, len(result))
		for _, r := range result {
			inResult[r.Name] = true
		}
		for _, svc := range services {
			if !inResult[svc.Name] {
				result = append(result, svc)
			}
		}
	}

	return result
}
