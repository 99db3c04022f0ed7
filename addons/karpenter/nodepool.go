package karpenter

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/fileutil"
)

// NodePoolFileName is the manifest file written under the output directory.
const NodePoolFileName = "nodepool.yaml"

const nodePoolTemplate = `apiVersion: karpenter.sh/v1beta1
kind: NodePool
metadata:
  name: {{ .NodePoolName | lower }}
spec:
  template:
    spec:
      requirements:
        - key: karpenter.sh/capacity-type
          operator: In
          values: ["spot", "on-demand"]
        - key: kubernetes.io/arch
          operator: In
          values: ["amd64"]
      nodeClassRef:
        apiVersion: karpenter.k8s.aws/v1beta1
        kind: EC2NodeClass
        name: {{ .NodeClassName | lower }}
  limits:
    cpu: 1000
  disruption:
    consolidationPolicy: WhenUnderutilized
---
apiVersion: karpenter.k8s.aws/v1beta1
kind: EC2NodeClass
metadata:
  name: {{ .NodeClassName | lower }}
spec:
  amiFamily: AL2
  role: {{ printf "KarpenterNodeRole-%s" .ClusterName }}
  subnetSelectorTerms:
    - tags:
        karpenter.sh/discovery: {{ .ClusterName }}
  securityGroupSelectorTerms:
    - tags:
        karpenter.sh/discovery: {{ .ClusterName }}
`

type nodePoolParams struct {
	ClusterName   string
	NodePoolName  string
	NodeClassName string
}

// GenerateNodePoolManifest renders the default NodePool/EC2NodeClass pair
// for the cluster and writes it to the output directory, returning the path.
func GenerateNodePoolManifest(pctx *addon.Context) (string, error) {
	tmpl, err := template.New("nodepool").Funcs(sprig.TxtFuncMap()).Parse(nodePoolTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse node-pool template (%v)", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, nodePoolParams{
		ClusterName:   pctx.ClusterName,
		NodePoolName:  fmt.Sprintf("%s-default-nodepool", pctx.ClusterName),
		NodeClassName: fmt.Sprintf("%s-default-nodeclass", pctx.ClusterName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render node-pool template (%v)", err)
	}
	return fileutil.WriteFile(pctx.OutputDir, NodePoolFileName, buf.Bytes())
}
